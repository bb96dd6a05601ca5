package world

import "github.com/Faultbox/bluebear/internal/engine/scenegraph"

// ModelManager tracks the instances one owner placed, such as a script
// or an editor tool, so they can be removed together.
type ModelManager struct {
	world     *WorldRenderer
	instances []*scenegraph.Model
}

// NewModelManager creates a manager placing into w.
func NewModelManager(w *WorldRenderer) *ModelManager {
	return &ModelManager{world: w}
}

// Place places a template and remembers the instance.
func (m *ModelManager) Place(templateID string, classes ...string) (*scenegraph.Model, error) {
	instance, err := m.world.PlaceObject(templateID, classes...)
	if err != nil {
		return nil, err
	}
	m.instances = append(m.instances, instance)
	return instance, nil
}

// Remove removes one instance owned by this manager.
func (m *ModelManager) Remove(instance *scenegraph.Model) bool {
	for i, owned := range m.instances {
		if owned == instance {
			m.instances = append(m.instances[:i], m.instances[i+1:]...)
			return m.world.RemoveObject(instance)
		}
	}
	return false
}

// Instances returns the instances still owned by the manager.
func (m *ModelManager) Instances() []*scenegraph.Model {
	return append([]*scenegraph.Model(nil), m.instances...)
}

// Drop removes every owned instance from the world and returns how many
// were still live.
func (m *ModelManager) Drop() int {
	removed := 0
	for _, instance := range m.instances {
		if m.world.RemoveObject(instance) {
			removed++
		}
	}
	m.instances = nil
	return removed
}
