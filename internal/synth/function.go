package synth

import (
	"fmt"
	"sort"

	"github.com/funcstack/funcstack/internal/constants"
	apperrors "github.com/funcstack/funcstack/internal/errors"
	"github.com/funcstack/funcstack/internal/manifest"
	"github.com/funcstack/funcstack/internal/template"
)

// UploadedPackage records a function package transferred to the deploy bucket.
type UploadedPackage struct {
	Function string
	Key      string
}

// FunctionInput is everything the function builder reads.
type FunctionInput struct {
	Bucket   string
	Version  string
	Manifest *manifest.Manifest
	Packages []UploadedPackage
}

// BuildFunctions emits, for every uploaded function except the reserved default entry,
// the runnable unit, an immutable version and the API invoke permission, plus an
// <LogicalName>Arn output. Two functions whose names reduce to the same logical name are a
// TEMPLATE_CONFLICT.
func BuildFunctions(in FunctionInput) (*template.Document, error) {
	doc := template.New()

	packages := make([]UploadedPackage, len(in.Packages))
	copy(packages, in.Packages)
	sort.Slice(packages, func(i, j int) bool { return packages[i].Function < packages[j].Function })

	owners := make(map[string]string, len(packages))
	for _, pkg := range packages {
		if pkg.Function == constants.DefaultFunctionName {
			continue
		}

		logical := FunctionLogicalName(pkg.Function)
		if other, ok := owners[logical]; ok {
			return nil, apperrors.ErrTemplateConflict(
				fmt.Sprintf("functions %q and %q both synthesize %s", other, pkg.Function, logical), nil)
		}
		owners[logical] = pkg.Function

		addFunction(doc, in, pkg)
	}

	return doc, nil
}

func addFunction(doc *template.Document, in FunctionInput, pkg UploadedPackage) {
	name := pkg.Function
	logical := FunctionLogicalName(name)

	props := template.FunctionProperties{
		FunctionName: template.Sub("${AWS::StackName}-" + name),
		Handler:      in.Manifest.HandlerFor(name),
		Runtime:      in.Manifest.RuntimeFor(name),
		Role:         template.GetAtt(ExecutionRoleName, "Arn"),
		MemorySize:   in.Manifest.MemoryFor(name),
		Timeout:      in.Manifest.TimeoutFor(name),
		Code: template.FunctionCode{
			S3Bucket: in.Bucket,
			S3Key:    pkg.Key,
		},
	}
	if env := in.Manifest.EnvironmentFor(name); env != nil {
		props.Environment = &template.FunctionEnvironment{Variables: env}
	}

	doc.Put(logical, template.Resource{
		Type:       template.TypeFunction,
		Properties: props,
		DependsOn:  []string{ExecutionRoleName},
	})

	doc.Put(versionLogicalName(name, in.Version), template.Resource{
		Type: template.TypeVersion,
		Properties: template.VersionProperties{
			FunctionName: template.Ref(logical),
			Description:  in.Version,
		},
		DeletionPolicy: template.DeletionPolicyRetain,
	})

	doc.Put(permissionLogicalName(name), template.Resource{
		Type: template.TypePermission,
		Properties: template.PermissionProperties{
			Action:       "lambda:InvokeFunction",
			FunctionName: template.GetAtt(logical, "Arn"),
			Principal:    "apigateway.amazonaws.com",
			SourceArn: template.Sub(
				"arn:${AWS::Partition}:execute-api:${AWS::Region}:${AWS::AccountId}:${" + APIName + "}/*"),
		},
	})

	doc.PutOutput(logical+"Arn", template.Output{
		Description: "ARN of function " + name,
		Value:       template.GetAtt(logical, "Arn"),
	})
}
