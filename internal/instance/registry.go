package instance

import (
	"fmt"

	"sprocket/internal/pipeline"
)

// Registry accumulates the instances of one ingest run in emission order.
// Two instances may not share a product name under the same folder path;
// the publish pipeline would otherwise overwrite one with the other.
type Registry struct {
	instances []*Instance
	keys      map[string]struct{}
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{keys: make(map[string]struct{})}
}

// Add appends an instance, rejecting product-name collisions.
func (r *Registry) Add(inst *Instance) error {
	key := inst.FolderPath + "\x00" + inst.ProductName
	if _, exists := r.keys[key]; exists {
		return pipeline.Wrap(pipeline.ErrValidation, "instance", "registry",
			fmt.Sprintf("duplicate product %q under %s", inst.ProductName, inst.FolderPath), nil)
	}
	r.keys[key] = struct{}{}
	r.instances = append(r.instances, inst)
	return nil
}

// List returns the instances in the order they were added.
func (r *Registry) List() []*Instance {
	return r.instances
}

// Len reports the number of registered instances.
func (r *Registry) Len() int {
	return len(r.instances)
}
