package cel

// ConditionExpressionExamples documents common condition shapes for the
// rule-authoring API.
var ConditionExpressionExamples = map[string]string{
	"option_equals":     `selection["metal"] == "white_gold"`,
	"option_not_equals": `selection["stone"] != "onyx"`,
	"setting_selected":  `"engraving" in selection`,
	"combined":          `selection["metal"] == "silver" && selection["chain"] == "rope"`,
	"per_product":       `product == "ring-solitaire" && selection["stone_size"] == "large"`,
}
