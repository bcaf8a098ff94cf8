package synth

import (
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"strings"

	apperrors "github.com/funcstack/funcstack/internal/errors"
	"github.com/funcstack/funcstack/internal/manifest"
	"github.com/funcstack/funcstack/internal/template"
)

const (
	corsAllowOrigin  = "'*'"
	corsAllowHeaders = "'Content-Type,X-Amz-Date,Authorization,X-Api-Key,X-Amz-Security-Token'"
	headerPrefix     = "method.response.header."
)

// node is one URL path segment. Its name is fixed at creation: parent name plus the
// capitalized token. The root sentinel has no name and no template resource.
type node struct {
	name     string
	token    string
	root     bool
	children map[string]*node

	corsMethods     []string
	explicitOptions bool
}

func newRoot() *node {
	return &node{root: true, children: make(map[string]*node)}
}

func (n *node) logicalName() string {
	return "Resource" + n.name
}

// ref is the value other resources use to point at this segment.
func (n *node) ref() any {
	if n.root {
		return template.GetAtt(APIName, "RootResourceId")
	}
	return template.Ref(n.logicalName())
}

// routeTree accumulates the resource tree and its fragments.
type routeTree struct {
	root     *node
	doc      *template.Document
	defaults manifest.RouteDefaults
	logger   *slog.Logger
	// owners maps each synthesized resource name to the path prefix that created it.
	owners map[string]string
}

// BuildRoutes synthesizes one API resource per distinct path segment, one method per
// declared verb and, per path with CORS-enabled methods, one OPTIONS preflight.
// The set of emitted names does not depend on map iteration order.
func BuildRoutes(routes manifest.RouteMap, defaults manifest.RouteDefaults, logger *slog.Logger) (*template.Document, error) {
	return buildRoutes(routes, routes.Paths(), defaults, logger)
}

func buildRoutes(routes manifest.RouteMap, order []string, defaults manifest.RouteDefaults, logger *slog.Logger) (*template.Document, error) {
	tree := &routeTree{
		root:     newRoot(),
		doc:      template.New(),
		defaults: defaults,
		logger:   logger,
		owners:   make(map[string]string),
	}

	for _, path := range order {
		leaf, err := tree.walk(path)
		if err != nil {
			return nil, err
		}
		if err := tree.addMethods(leaf, path, routes[path]); err != nil {
			return nil, err
		}
	}
	tree.addPreflights(tree.root)

	return tree.doc, nil
}

// splitPath strips one leading and one trailing separator. The root path yields no tokens.
func splitPath(path string) []string {
	trimmed := strings.TrimPrefix(path, "/")
	trimmed = strings.TrimSuffix(trimmed, "/")
	if trimmed == "" {
		return nil
	}

	var tokens []string
	for _, token := range strings.Split(trimmed, "/") {
		if token != "" {
			tokens = append(tokens, token)
		}
	}
	return tokens
}

// walk descends from the root, creating and emitting every unseen segment of path.
func (t *routeTree) walk(path string) (*node, error) {
	current := t.root
	tokens := splitPath(path)
	for i, token := range tokens {
		child, seen := current.children[token]
		if !seen {
			created, err := t.attach(current, token, "/"+strings.Join(tokens[:i+1], "/"))
			if err != nil {
				return nil, err
			}
			child = created
		}
		current = child
	}
	return current, nil
}

func (t *routeTree) attach(parent *node, token, prefix string) (*node, error) {
	label := pascal(strings.NewReplacer("{", "", "}", "").Replace(token))
	if label == "" {
		return nil, apperrors.ErrInvalidManifest(
			fmt.Sprintf("route %q: segment %q has no usable characters", prefix, token), nil)
	}

	child := &node{
		name:     parent.name + label,
		token:    token,
		children: make(map[string]*node),
	}

	logical := child.logicalName()
	err := t.doc.Add(logical, template.Resource{
		Type: template.TypeAPIResource,
		Properties: template.APIResourceProperties{
			RestAPIID: template.Ref(APIName),
			ParentID:  parent.ref(),
			PathPart:  token,
		},
	})
	if err != nil {
		return nil, apperrors.ErrTemplateConflict(
			fmt.Sprintf("route %q synthesizes %s, already used by %q", prefix, logical, t.owners[logical]), err)
	}

	t.owners[logical] = prefix
	parent.children[token] = child
	return child, nil
}

// addMethods emits the method bindings of one path and records which verbs want CORS.
// Several spellings of a path ("/a" and "/a/") share a node, so preflights are emitted
// once every path has been seen.
func (t *routeTree) addMethods(n *node, path string, methods manifest.Methods) error {
	for _, declared := range methods.Names() {
		verb := strings.ToUpper(declared)
		binding := methods[declared]

		if err := t.doc.Add(methodLogicalName(n, verb), proxyMethod(n, verb, binding.Function)); err != nil {
			return apperrors.ErrTemplateConflict(fmt.Sprintf("route %q: method %s declared twice", path, verb), err)
		}

		if verb == "OPTIONS" {
			n.explicitOptions = true
			continue
		}
		if binding.CORSEnabled(t.defaults) {
			n.corsMethods = append(n.corsMethods, verb)
		}
	}
	return nil
}

// addPreflights emits one OPTIONS preflight per node with CORS-enabled methods.
func (t *routeTree) addPreflights(n *node) {
	if len(n.corsMethods) > 0 {
		allowed := slices.Clone(n.corsMethods)
		sort.Strings(allowed)

		if n.explicitOptions {
			t.logger.Warn("explicit OPTIONS method replaces the generated CORS preflight", "context", map[string]any{
				"resource":     n.logicalName(),
				"cors_methods": allowed,
			})
		} else {
			t.doc.Put(methodLogicalName(n, "OPTIONS"), preflightMethod(n, append(allowed, "OPTIONS")))
		}
	}

	for _, token := range sortedTokens(n.children) {
		t.addPreflights(n.children[token])
	}
}

func sortedTokens(children map[string]*node) []string {
	tokens := make([]string, 0, len(children))
	for token := range children {
		tokens = append(tokens, token)
	}
	sort.Strings(tokens)
	return tokens
}

func methodLogicalName(n *node, verb string) string {
	return "Method" + n.name + verb
}

func proxyMethod(n *node, verb, function string) template.Resource {
	return template.Resource{
		Type: template.TypeMethod,
		Properties: template.MethodProperties{
			RestAPIID:         template.Ref(APIName),
			ResourceID:        n.ref(),
			HTTPMethod:        verb,
			AuthorizationType: "NONE",
			Integration: template.MethodIntegration{
				Type:                  "AWS_PROXY",
				IntegrationHTTPMethod: "POST",
				URI: template.Sub("arn:${AWS::Partition}:apigateway:${AWS::Region}:lambda:path/2015-03-31/functions/${" +
					FunctionLogicalName(function) + ".Arn}/invocations"),
			},
		},
	}
}

// PreflightAllowedMethods extracts the Access-Control-Allow-Methods list of a preflight resource.
func PreflightAllowedMethods(r template.Resource) []string {
	props, ok := r.Properties.(template.MethodProperties)
	if !ok || len(props.Integration.IntegrationResponses) == 0 {
		return nil
	}
	value := props.Integration.IntegrationResponses[0].ResponseParameters[headerPrefix+"Access-Control-Allow-Methods"]
	return strings.Split(strings.Trim(value, "'"), ",")
}

func preflightMethod(n *node, allowed []string) template.Resource {
	return template.Resource{
		Type: template.TypeMethod,
		Properties: template.MethodProperties{
			RestAPIID:         template.Ref(APIName),
			ResourceID:        n.ref(),
			HTTPMethod:        "OPTIONS",
			AuthorizationType: "NONE",
			Integration: template.MethodIntegration{
				Type:             "MOCK",
				RequestTemplates: map[string]string{"application/json": `{"statusCode": 200}`},
				IntegrationResponses: []template.IntegrationResponse{{
					StatusCode: "200",
					ResponseParameters: map[string]string{
						headerPrefix + "Access-Control-Allow-Headers": corsAllowHeaders,
						headerPrefix + "Access-Control-Allow-Methods": "'" + strings.Join(allowed, ",") + "'",
						headerPrefix + "Access-Control-Allow-Origin":  corsAllowOrigin,
					},
					ResponseTemplates: map[string]string{"application/json": ""},
				}},
			},
			MethodResponses: []template.MethodResponse{{
				StatusCode: "200",
				ResponseParameters: map[string]bool{
					headerPrefix + "Access-Control-Allow-Headers": true,
					headerPrefix + "Access-Control-Allow-Methods": true,
					headerPrefix + "Access-Control-Allow-Origin":  true,
				},
			}},
		},
	}
}
