package domain

import "strconv"

// DefaultScaleLabels returns the built-in labels for a scale type
func DefaultScaleLabels(scale ScaleType) ScaleLabels {
	switch scale {
	case ScaleBinary:
		return ScaleLabels{Binary: &BinaryLabels{Positive: "Yes", Negative: "No"}}
	case ScaleFivePoint:
		return ScaleLabels{FivePoint: &FivePointLabels{
			VeryNegative: "Strongly Disagree",
			Negative:     "Disagree",
			Neutral:      "Neutral",
			Positive:     "Agree",
			VeryPositive: "Strongly Agree",
		}}
	case ScaleSevenPoint:
		return ScaleLabels{SevenPoint: &SevenPointLabels{
			VeryNegative:     "Strongly Disagree",
			Negative:         "Disagree",
			SomewhatNegative: "Somewhat Disagree",
			Neutral:          "Neutral",
			SomewhatPositive: "Somewhat Agree",
			Positive:         "Agree",
			VeryPositive:     "Strongly Agree",
		}}
	}
	return ScaleLabels{}
}

// ScaleLabelList returns the labels of a scale ordered from the lowest value
// to the highest. Custom labels override defaults one by one.
func ScaleLabelList(scale ScaleType, custom *ScaleLabels) []string {
	def := DefaultScaleLabels(scale)
	pick := func(c, d string) string {
		if c != "" {
			return c
		}
		return d
	}

	switch scale {
	case ScaleBinary:
		var c BinaryLabels
		if custom != nil && custom.Binary != nil {
			c = *custom.Binary
		}
		return []string{pick(c.Negative, def.Binary.Negative), pick(c.Positive, def.Binary.Positive)}
	case ScaleFivePoint:
		var c FivePointLabels
		if custom != nil && custom.FivePoint != nil {
			c = *custom.FivePoint
		}
		d := def.FivePoint
		return []string{
			pick(c.VeryNegative, d.VeryNegative),
			pick(c.Negative, d.Negative),
			pick(c.Neutral, d.Neutral),
			pick(c.Positive, d.Positive),
			pick(c.VeryPositive, d.VeryPositive),
		}
	case ScaleSevenPoint:
		var c SevenPointLabels
		if custom != nil && custom.SevenPoint != nil {
			c = *custom.SevenPoint
		}
		d := def.SevenPoint
		return []string{
			pick(c.VeryNegative, d.VeryNegative),
			pick(c.Negative, d.Negative),
			pick(c.SomewhatNegative, d.SomewhatNegative),
			pick(c.Neutral, d.Neutral),
			pick(c.SomewhatPositive, d.SomewhatPositive),
			pick(c.Positive, d.Positive),
			pick(c.VeryPositive, d.VeryPositive),
		}
	}
	return nil
}

// ResponseLabel renders a response value with the question's labels.
// Out-of-range values fall back to a signed number.
func ResponseLabel(value int, scale ScaleType, custom *ScaleLabels) string {
	labels := ScaleLabelList(scale, custom)
	if labels == nil {
		return strconv.Itoa(value)
	}
	if scale == ScaleBinary {
		if value == 1 {
			return labels[1]
		}
		return labels[0]
	}

	offset := len(labels) / 2
	if i := value + offset; i >= 0 && i < len(labels) {
		return labels[i]
	}
	if value > 0 {
		return "+" + strconv.Itoa(value)
	}
	return strconv.Itoa(value)
}
