// Package document provides a JSON document state container.
//
// A Document is an immutable JSON value. Reducers in this package edit it with
// sjson paths and read it with gjson paths, so a store of Documents can be
// driven both by typed Go actions and by untyped actions coming from scripts
// or scenario files:
//
//	st, _ := store.New(d, document.Empty, store.WithReducers(document.Reducers()...))
//	st.Dispatch(ctx, document.Set{Path: "user.name", Value: "Joe"})
//	st.Dispatch(ctx, action.Named{Name: document.TagDelete, Payload: map[string]any{"path": "user"}})
package document
