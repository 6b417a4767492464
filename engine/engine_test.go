package engine

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kaisc/lemon-toolkit/engine/graphics"
	"github.com/kaisc/lemon-toolkit/engine/world"
)

type marker struct {
	world.BaseComponent
}

func TestCore_InitializeAndDispose(t *testing.T) {
	backend := graphics.NewTraceBackend()
	core := Initialize(
		WithWorkerCount(2),
		WithBackend(backend),
	)

	require.True(t, core.IsRunning())
	require.NotNil(t, core.Scheduler())
	require.NotNil(t, core.Dispatcher())
	require.NotNil(t, core.World())
	require.NotNil(t, core.Frontend())
	assert.Equal(t, 2, core.Scheduler().WorkerCount())
	assert.True(t, core.IsMainThread())

	core.Dispose()
	assert.False(t, core.IsRunning())
}

func TestCore_SubsystemsCooperate(t *testing.T) {
	backend := graphics.NewTraceBackend()
	core := Initialize(WithWorkerCount(2), WithBackend(backend))
	defer core.Dispose()

	w := core.World()
	e := w.Spawn()
	_, err := world.Add[marker](w, e)
	require.NoError(t, err)

	task := core.Scheduler().Create("probe", func() {})
	core.Scheduler().Run(task)
	core.Scheduler().Wait(task)
	assert.True(t, core.Scheduler().IsCompleted(task))

	fe := core.Frontend()
	require.True(t, fe.BeginFrame())
	fe.EndFrame()
	fe.Flush()
}

func TestCore_MetricsRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	core := Initialize(
		WithWorkerCount(1),
		WithBackend(graphics.NewTraceBackend()),
		WithRegisterer(reg),
	)
	defer core.Dispose()

	w := core.World()
	e := w.Spawn()
	_, err := world.Add[marker](w, e)
	require.NoError(t, err)
	w.Recycle(e)

	families, err := reg.Gather()
	require.NoError(t, err)

	names := make(map[string]bool, len(families))
	for _, fam := range families {
		names[fam.GetName()] = true
	}
	assert.True(t, names["lemon_entities_alive"])
	assert.True(t, names["lemon_components_added_total"])
	assert.True(t, names["lemon_components_removed_total"])
}

func TestCore_DisposeClearsAccessors(t *testing.T) {
	// dispose runs world -> frontend -> dispatcher -> scheduler; after it the
	// accessors report a stopped core rather than panicking on reuse checks
	core := Initialize(WithWorkerCount(1), WithBackend(graphics.NewTraceBackend()))
	core.Dispose()
	assert.Nil(t, core.World())
	assert.Nil(t, core.Frontend())
	assert.Nil(t, core.Dispatcher())
	assert.Nil(t, core.Scheduler())
}

func TestCPUCount(t *testing.T) {
	assert.GreaterOrEqual(t, CPUCount(), 1)
}
