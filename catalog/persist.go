package catalog

import (
	"context"
	"fmt"

	"github.com/planetfederal/gsconfig/debugctx"
	"github.com/planetfederal/gsconfig/entity"
	"github.com/planetfederal/gsconfig/faults"
	"github.com/planetfederal/gsconfig/transport"
)

type DeleteOptions struct {
	// Purge removes the backing data (files) as well as the configuration.
	Purge bool
	// Recurse deletes dependent objects, e.g. the resources of a store.
	Recurse bool
}

// Save sends the object's pending fields: POST to its collection when it is
// unsaved, PUT to its own document otherwise. On success the whole response
// cache is cleared and the object becomes clean and attached; it re-reads
// the server's view on next access. A failed save changes nothing.
func (c *Catalog) Save(ctx context.Context, obj Object) error {
	e, err := liveEntity(obj)
	if err != nil {
		return err
	}

	payload, err := e.Materialize(ctx)
	if err != nil {
		return err
	}

	request := transport.Request{
		Method:      "PUT",
		Path:        e.Identity(),
		ContentType: transport.MediaTypeXML,
		Body:        payload,
	}
	if !e.Attached() {
		request.Method = "POST"
		request.Path = e.CreatePath()
	}
	debugctx.Printf(ctx, "catalog save method=%s path=%q fields=%v", request.Method, request.Path, e.PendingFields())

	if _, err := c.send(ctx, request); err != nil {
		return err
	}
	e.MarkSaved()
	return nil
}

// Delete removes the object from the server. A missing object is still a
// FailedRequest here; callers that treat delete as idempotent use
// DeleteIgnoringMissing.
func (c *Catalog) Delete(ctx context.Context, obj Object, opts DeleteOptions) error {
	e, err := liveEntity(obj)
	if err != nil {
		return err
	}
	if !e.Attached() {
		return validationError(fmt.Sprintf("%q has not been saved", obj.Name()), nil)
	}

	query := map[string]string{}
	if opts.Purge {
		query["purge"] = "true"
	}
	if opts.Recurse {
		query["recurse"] = "true"
	}

	if _, err := c.send(ctx, transport.Request{
		Method: "DELETE",
		Path:   e.Identity(),
		Query:  query,
	}); err != nil {
		return err
	}
	e.MarkDeleted()
	return nil
}

// DeleteIgnoringMissing deletes obj and treats a 404 (for instance after a
// cascading delete already removed it) as success.
func DeleteIgnoringMissing(ctx context.Context, c *Catalog, obj Object, opts DeleteOptions) error {
	err := c.Delete(ctx, obj, opts)
	if err != nil && isMissing(err) {
		debugctx.Printf(ctx, "catalog delete of %q ignored: already absent", obj.Name())
		if e := obj.base(); e != nil {
			e.MarkDeleted()
		}
		return nil
	}
	return err
}

func liveEntity(obj Object) (*entity.Entity, error) {
	if obj == nil || isNilNamed(obj) || obj.base() == nil {
		return nil, validationError("catalog object is required", nil)
	}
	e := obj.base()
	if e.Deleted() {
		return nil, validationError(fmt.Sprintf("%q was deleted", obj.Name()), nil)
	}
	return e, nil
}

func isMissing(err error) bool {
	return faults.IsNotFound(err)
}
