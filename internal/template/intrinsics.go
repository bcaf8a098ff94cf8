package template

// Intrinsic is a function call evaluated by the stack API at deploy time.
type Intrinsic map[string]any

// Pseudo parameters resolved by the stack API.
const (
	PseudoAccountID = "AWS::AccountId"
	PseudoRegion    = "AWS::Region"
	PseudoStackName = "AWS::StackName"
	PseudoPartition = "AWS::Partition"
)

// Ref references a resource's primary identifier or a pseudo parameter.
func Ref(name string) Intrinsic {
	return Intrinsic{"Ref": name}
}

// GetAtt references an attribute of a resource.
func GetAtt(name, attribute string) Intrinsic {
	return Intrinsic{"Fn::GetAtt": []string{name, attribute}}
}

// Sub substitutes ${Name} and ${Name.Attr} placeholders at deploy time.
func Sub(format string) Intrinsic {
	return Intrinsic{"Fn::Sub": format}
}

// Join concatenates parts with sep at deploy time.
func Join(sep string, parts ...any) Intrinsic {
	return Intrinsic{"Fn::Join": []any{sep, parts}}
}
