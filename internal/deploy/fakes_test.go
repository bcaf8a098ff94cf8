package deploy

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/funcstack/funcstack/internal/deploy/contract"
	apperrors "github.com/funcstack/funcstack/internal/errors"
	"github.com/funcstack/funcstack/internal/synth"
)

type fakeStacks struct {
	mu      sync.Mutex
	stacks  map[string]*contract.Stack
	calls   []string
	sources []contract.TemplateSource

	describeErr error
	createErr   error
	updateErr   error
	waitErr     error
}

func newFakeStacks() *fakeStacks {
	return &fakeStacks{stacks: map[string]*contract.Stack{}}
}

func (f *fakeStacks) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeStacks) count(call string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == call {
			n++
		}
	}
	return n
}

func (f *fakeStacks) DescribeStack(_ context.Context, name string) (*contract.Stack, error) {
	f.record("describe")
	if f.describeErr != nil {
		return nil, f.describeErr
	}
	stack, ok := f.stacks[name]
	if !ok {
		return nil, apperrors.ErrResourceNotFound("stack "+name+" does not exist", nil)
	}
	return stack, nil
}

func (f *fakeStacks) CreateStack(_ context.Context, name string, source contract.TemplateSource) error {
	f.record("create")
	f.sources = append(f.sources, source)
	if f.createErr != nil {
		return f.createErr
	}
	f.stacks[name] = &contract.Stack{Name: name, Status: "CREATE_IN_PROGRESS"}
	return nil
}

func (f *fakeStacks) UpdateStack(_ context.Context, name string, source contract.TemplateSource) error {
	f.record("update")
	f.sources = append(f.sources, source)
	if f.updateErr != nil {
		return f.updateErr
	}
	f.stacks[name].Status = "UPDATE_IN_PROGRESS"
	return nil
}

func (f *fakeStacks) WaitForStackConverged(_ context.Context, name string) (*contract.Stack, error) {
	f.record("wait")
	if f.waitErr != nil {
		return nil, f.waitErr
	}
	stack := f.stacks[name]
	switch stack.Status {
	case "CREATE_IN_PROGRESS":
		stack.Status = "CREATE_COMPLETE"
	case "UPDATE_IN_PROGRESS":
		stack.Status = "UPDATE_COMPLETE"
		stack.Outputs = map[string]string{"ApiEndpoint": "https://abc.execute-api.eu-west-1.amazonaws.com/prod"}
	}
	return stack, nil
}

type fakeStorage struct {
	mu       sync.Mutex
	buckets  map[string]string
	objects  map[string][]byte
	failKeys map[string]error

	existsErr error
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{
		buckets:  map[string]string{},
		objects:  map[string][]byte{},
		failKeys: map[string]error{},
	}
}

func (f *fakeStorage) BucketExists(_ context.Context, name string) (bool, error) {
	if f.existsErr != nil {
		return false, f.existsErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.buckets[name]
	return ok, nil
}

func (f *fakeStorage) CreateBucket(_ context.Context, name, region string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.buckets[name] = region
	return nil
}

func (f *fakeStorage) UploadObject(_ context.Context, bucket, key string, body io.Reader) error {
	if err := f.failKeys[key]; err != nil {
		return err
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[bucket+"/"+key] = data
	return nil
}

func (f *fakeStorage) ObjectURL(bucket, key string) string {
	return "https://" + bucket + ".s3.amazonaws.com/" + key
}

func (f *fakeStorage) object(bucket, key string) ([]byte, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[bucket+"/"+key]
	return data, ok
}

type fakeInvoker struct {
	mu        sync.Mutex
	functions []contract.DeployedFunction
	responses map[string]*contract.Invocation
	invoked   []string
	listErr   error
}

func newFakeInvoker(names ...string) *fakeInvoker {
	f := &fakeInvoker{responses: map[string]*contract.Invocation{}}
	for _, name := range names {
		f.functions = append(f.functions, contract.DeployedFunction{Name: name})
		f.responses[name] = &contract.Invocation{StatusCode: 200, Payload: []byte(`{"test":"ok"}`)}
	}
	return f
}

func (f *fakeInvoker) ListDeployedFunctions(_ context.Context) ([]contract.DeployedFunction, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.functions, nil
}

func (f *fakeInvoker) InvokeFunction(_ context.Context, name string, _ []byte) (*contract.Invocation, error) {
	f.mu.Lock()
	f.invoked = append(f.invoked, name)
	f.mu.Unlock()

	response, ok := f.responses[name]
	if !ok {
		return nil, errors.New("function not found: " + name)
	}
	return response, nil
}

type fakeTailer struct {
	lines []string
	err   error
}

func (f *fakeTailer) RecentLogLines(_ context.Context, _ string, _ time.Time, _ int) ([]string, error) {
	return f.lines, f.err
}

func uploadedPackage(function string) synth.UploadedPackage {
	return synth.UploadedPackage{Function: function, Key: PackageKey(function, testVersion)}
}
