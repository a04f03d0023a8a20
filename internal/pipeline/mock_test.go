package pipeline

import "context"

// mockVCS implements vcs.VCS for unit testing.
type mockVCS struct {
	syncFunc    func(ctx context.Context, remote, ref, dir string) error
	tagsFunc    func(ctx context.Context, remote string) ([]string, error)
	resolveFunc func(ctx context.Context, remote, ref string) (string, error)
}

func (m *mockVCS) Sync(ctx context.Context, remote, ref, dir string) error {
	if m.syncFunc != nil {
		return m.syncFunc(ctx, remote, ref, dir)
	}
	return nil
}

func (m *mockVCS) Tags(ctx context.Context, remote string) ([]string, error) {
	if m.tagsFunc != nil {
		return m.tagsFunc(ctx, remote)
	}
	return nil, nil
}

func (m *mockVCS) ResolveRef(ctx context.Context, remote, ref string) (string, error) {
	if m.resolveFunc != nil {
		return m.resolveFunc(ctx, remote, ref)
	}
	return ref, nil
}

// mockEngine implements EngineDriver.
type mockEngine struct {
	envFunc       func(key, value string)
	configureFunc func(ctx context.Context, args ...string) error
	makeFunc      func(ctx context.Context, args ...string) error
}

func (m *mockEngine) Env(key, value string) {
	if m.envFunc != nil {
		m.envFunc(key, value)
	}
}

func (m *mockEngine) Configure(ctx context.Context, args ...string) error {
	if m.configureFunc != nil {
		return m.configureFunc(ctx, args...)
	}
	return nil
}

func (m *mockEngine) Make(ctx context.Context, args ...string) error {
	if m.makeFunc != nil {
		return m.makeFunc(ctx, args...)
	}
	return nil
}

// mockBinding implements BindingDriver.
type mockBinding struct {
	amalgamationFunc func(ctx context.Context) error
	buildFunc        func(ctx context.Context) error
	outputDirsFunc   func(glob string) ([]string, error)
}

func (m *mockBinding) BuildAmalgamation(ctx context.Context) error {
	if m.amalgamationFunc != nil {
		return m.amalgamationFunc(ctx)
	}
	return nil
}

func (m *mockBinding) Build(ctx context.Context) error {
	if m.buildFunc != nil {
		return m.buildFunc(ctx)
	}
	return nil
}

func (m *mockBinding) OutputDirs(glob string) ([]string, error) {
	if m.outputDirsFunc != nil {
		return m.outputDirsFunc(glob)
	}
	return nil, nil
}
