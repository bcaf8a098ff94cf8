// Package deploy owns the deploy session and drives a stack from its current state to the
// state described by a manifest: bucket, stack, package upload, update and health check.
package deploy

import (
	"fmt"
	"slices"

	"github.com/google/uuid"

	"github.com/funcstack/funcstack/internal/constants"
	"github.com/funcstack/funcstack/internal/manifest"
	"github.com/funcstack/funcstack/internal/synth"
	"github.com/funcstack/funcstack/internal/template"
)

// State tags the last step a session completed.
type State string

// Deploy states in the order a successful deploy passes them.
const (
	StateInit          State = "INIT"
	StateFetchedBucket State = "FETCHED_BUCKET"
	StateCreatedBucket State = "CREATED_BUCKET"
	StateFetchedStack  State = "FETCHED_STACK"
	StateCreated       State = "CREATED"
	StateUploading     State = "UPLOADING"
	StateUploaded      State = "UPLOADED"
	StateUploadFailed  State = "UPLOAD_FAILED"
	StateUpdating      State = "UPDATING"
	StateUpdated       State = "UPDATED"
	StatePinging       State = "PINGING"
	StatePinged        State = "PINGED"
)

// LocalPackage is a function package on local disk. The file is removed once its
// transfer has been attempted, so callers hand over a staged copy.
type LocalPackage struct {
	Function string
	Path     string
}

// Session is the state of one deploy. Only the Orchestrator mutates it.
type Session struct {
	ID        string
	StackName string
	Bucket    string
	Region    string
	Version   string
	Manifest  *manifest.Manifest
	Packages  []LocalPackage

	// Filled while the deploy runs.
	Uploaded  []synth.UploadedPackage
	Document  *template.Document
	Outputs   map[string]string
	NoChanges bool
	Pinged    []string

	state   State
	history []State
}

// NewSession creates a session in the INIT state with a fresh id.
func NewSession(
	stackName, bucket, region, version string,
	m *manifest.Manifest,
	packages []LocalPackage,
) *Session {
	return &Session{
		ID:        uuid.NewString(),
		StackName: stackName,
		Bucket:    bucket,
		Region:    region,
		Version:   version,
		Manifest:  m,
		Packages:  packages,
		state:     StateInit,
		history:   []State{StateInit},
	}
}

// State returns the current state.
func (s *Session) State() State {
	return s.state
}

// History returns every state the session passed through, oldest first.
func (s *Session) History() []State {
	return slices.Clone(s.history)
}

func (s *Session) transition(to State) {
	s.state = to
	s.history = append(s.history, to)
}

func (s *Session) validate() error {
	switch {
	case s.StackName == "":
		return fmt.Errorf("session has no stack name")
	case s.Bucket == "":
		return fmt.Errorf("session has no bucket")
	case s.Region == "":
		return fmt.Errorf("session has no region")
	case s.Version == "":
		return fmt.Errorf("session has no version")
	case s.Manifest == nil:
		return fmt.Errorf("session has no manifest")
	case s.state != StateInit:
		return fmt.Errorf("session %s already ran (state %s)", s.ID, s.state)
	}
	return nil
}

// PackageKey is the bucket key a function package is uploaded under.
func PackageKey(function, version string) string {
	return function + "-" + version + constants.PackageExtension
}

// TemplateKey is the bucket key an oversized template is uploaded under.
func TemplateKey(version string) string {
	return version + "/" + constants.TemplateObjectName
}
