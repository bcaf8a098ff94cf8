package synth

import (
	"fmt"
	"log/slog"

	"github.com/funcstack/funcstack/internal/constants"
	"github.com/funcstack/funcstack/internal/manifest"
	"github.com/funcstack/funcstack/internal/template"
)

// Input is everything Assemble reads.
type Input struct {
	StackName string
	Bucket    string
	Version   string
	Manifest  *manifest.Manifest
	Packages  []UploadedPackage
}

// Assemble produces the complete document for one deploy. Builder fragments must not
// share logical names; the manifest's custom resources and outputs are merged last and
// replace synthesized entries of the same name.
func Assemble(in Input, logger *slog.Logger) (*template.Document, error) {
	doc := template.NewTemplate(fmt.Sprintf("%s application %s (%s)", constants.ProjectName, in.StackName, in.Version))
	doc.Merge(baseResources())

	functions, err := BuildFunctions(FunctionInput{
		Bucket:   in.Bucket,
		Version:  in.Version,
		Manifest: in.Manifest,
		Packages: in.Packages,
	})
	if err != nil {
		return nil, err
	}
	if err := doc.MergeDisjoint(functions); err != nil {
		return nil, err
	}

	routes, err := BuildRoutes(in.Manifest.Routes, in.Manifest.RouteDefaults, logger)
	if err != nil {
		return nil, err
	}
	if err := doc.MergeDisjoint(routes); err != nil {
		return nil, err
	}

	if err := doc.MergeDisjoint(BuildTriggers(in.Manifest, deployedFunctions(in.Packages), logger)); err != nil {
		return nil, err
	}

	if methods := doc.NamesOfType(template.TypeMethod); len(methods) > 0 {
		doc.Put(deploymentLogicalName(in.Version), template.Resource{
			Type: template.TypeDeployment,
			Properties: template.DeploymentProperties{
				RestAPIID:   template.Ref(APIName),
				StageName:   constants.APIStageName,
				Description: in.Version,
			},
			DependsOn: methods,
		})
		doc.PutOutput(APIEndpointOutput, template.Output{
			Description: "Base URL of the HTTP API",
			Value: template.Sub("https://${" + APIName + "}.execute-api.${AWS::Region}.${AWS::URLSuffix}/" +
				constants.APIStageName),
		})
	}

	if overwritten := doc.Merge(customResources(in.Manifest)); len(overwritten) > 0 {
		logger.Warn("custom resources replace synthesized entries", "context", map[string]any{
			"names": overwritten,
		})
	}

	return doc, nil
}

func deployedFunctions(packages []UploadedPackage) []string {
	names := make([]string, 0, len(packages))
	for _, pkg := range packages {
		if pkg.Function == constants.DefaultFunctionName {
			continue
		}
		names = append(names, pkg.Function)
	}
	return names
}

func baseResources() *template.Document {
	doc := template.New()

	doc.Put(ExecutionRoleName, template.Resource{
		Type: template.TypeRole,
		Properties: template.RoleProperties{
			AssumeRolePolicyDocument: template.PolicyDocument{
				Version: "2012-10-17",
				Statement: []template.PolicyStatement{{
					Effect:    "Allow",
					Principal: map[string]any{"Service": []string{"lambda.amazonaws.com"}},
					Action:    []string{"sts:AssumeRole"},
				}},
			},
			ManagedPolicyArns: []any{
				template.Sub("arn:${AWS::Partition}:iam::aws:policy/service-role/AWSLambdaBasicExecutionRole"),
			},
		},
	})

	doc.Put(APIName, template.Resource{
		Type: template.TypeRestAPI,
		Properties: template.RestAPIProperties{
			Name:        template.Ref(template.PseudoStackName),
			Description: "HTTP API of " + constants.ProjectName + " application",
		},
	})

	return doc
}

func customResources(m *manifest.Manifest) *template.Document {
	doc := template.New()

	for name, r := range m.Resources {
		res := template.Resource{Type: r.Type, DependsOn: r.DependsOn}
		if len(r.Properties) > 0 {
			res.Properties = r.Properties
		}
		doc.Put(name, res)
	}

	for name, o := range m.Outputs {
		out := template.Output{Description: o.Description, Value: o.Value}
		if o.Export != "" {
			out.Export = &template.Export{Name: o.Export}
		}
		doc.PutOutput(name, out)
	}

	return doc
}
