package config

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSection struct {
	id          string
	data        map[string]any
	validateErr error
	setErr      error
}

func (f *fakeSection) ID() string           { return f.id }
func (f *fakeSection) Title() string        { return f.id }
func (f *fakeSection) Description() string  { return "" }
func (f *fakeSection) Data() map[string]any { return f.data }
func (f *fakeSection) Validate() error      { return f.validateErr }
func (f *fakeSection) Reset()               { f.data = map[string]any{} }
func (f *fakeSection) SetData(data map[string]any) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.data = data
	return nil
}

type memStore struct {
	sections map[string]map[string]any
	loadErr  error
	saveErr  error
	saves    int
}

func newMemStore() *memStore {
	return &memStore{sections: make(map[string]map[string]any)}
}

func (m *memStore) Load() error { return m.loadErr }
func (m *memStore) Save() error {
	m.saves++
	return m.saveErr
}
func (m *memStore) GetSection(id string) (map[string]any, error) { return m.sections[id], nil }
func (m *memStore) SetSection(id string, data map[string]any) error {
	m.sections[id] = data
	return nil
}
func (m *memStore) GetAll() (map[string]map[string]any, error) { return m.sections, nil }
func (m *memStore) SetAll(data map[string]map[string]any) error {
	m.sections = data
	return nil
}

func TestManager_Register(t *testing.T) {
	store := newMemStore()
	m := NewManager(store)
	assert.Same(t, store, m.Store())
	assert.Empty(t, m.GetSections())

	require.NoError(t, m.RegisterSection(&fakeSection{id: "b"}))
	require.NoError(t, m.RegisterSection(&fakeSection{id: "a"}))
	assert.Error(t, m.RegisterSection(&fakeSection{id: "a"}))

	sections := m.GetSections()
	require.Len(t, sections, 2)
	assert.Equal(t, "b", sections[0].ID())
	assert.Equal(t, "a", sections[1].ID())

	_, ok := m.GetSection("missing")
	assert.False(t, ok)
}

func TestManager_LoadAll(t *testing.T) {
	store := newMemStore()
	store.sections["a"] = map[string]any{"k": "v"}
	m := NewManager(store)

	a := &fakeSection{id: "a"}
	untouched := &fakeSection{id: "b", data: map[string]any{"default": true}}
	require.NoError(t, m.RegisterSection(a))
	require.NoError(t, m.RegisterSection(untouched))

	require.NoError(t, m.LoadAll())
	assert.Equal(t, "v", a.data["k"])
	assert.Equal(t, true, untouched.data["default"], "sections without stored data keep defaults")

	store.loadErr = errors.New("disk gone")
	assert.Error(t, m.LoadAll())

	store.loadErr = nil
	a.setErr = errors.New("bad value")
	assert.Error(t, m.LoadAll())
}

func TestManager_SaveAll(t *testing.T) {
	store := newMemStore()
	m := NewManager(store)
	good := &fakeSection{id: "good", data: map[string]any{"k": "v"}}
	bad := &fakeSection{id: "bad", data: map[string]any{}, validateErr: errors.New("nope")}
	require.NoError(t, m.RegisterSection(good))
	require.NoError(t, m.RegisterSection(bad))

	assert.Error(t, m.SaveAll())
	assert.Empty(t, store.sections, "nothing written when a section is invalid")
	assert.Zero(t, store.saves)

	bad.validateErr = nil
	require.NoError(t, m.SaveAll())
	assert.Equal(t, "v", store.sections["good"]["k"])
	assert.Equal(t, 1, store.saves)

	store.saveErr = errors.New("read-only")
	assert.Error(t, m.SaveAll())
}

func TestManager_ResetAll(t *testing.T) {
	m := NewManager(newMemStore())
	a := &fakeSection{id: "a", data: map[string]any{"k": 1}}
	require.NoError(t, m.RegisterSection(a))

	m.ResetAll()
	assert.Empty(t, a.data)
}

func TestManager_ConcurrentRegister(t *testing.T) {
	m := NewManager(newMemStore())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = m.RegisterSection(&fakeSection{id: fmt.Sprintf("s%d", i)})
			_ = m.GetSections()
		}(i)
	}
	wg.Wait()
	assert.Len(t, m.GetSections(), 20)
}
