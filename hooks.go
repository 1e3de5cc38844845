package docmorph

import "context"

// BeforeSaveHook runs on an entity just before it is encoded and
// written. Returning an error aborts the save.
type BeforeSaveHook interface {
	BeforeSave(ctx context.Context) error
}

// AfterLoadHook runs on an entity right after it was decoded and its
// references were bound.
type AfterLoadHook interface {
	AfterLoad(ctx context.Context) error
}
