package fakestore

import (
	"fmt"
	"sort"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// evaluate runs the supported pipeline stages in order. Callers hold
// at least a read lock so $lookup sees a consistent store.
func (s *Store) evaluate(docs []bson.Raw, pipeline mongo.Pipeline) ([]bson.Raw, error) {
	var err error
	for _, stage := range pipeline {
		if len(stage) != 1 {
			return nil, fmt.Errorf("malformed pipeline stage: %v", stage)
		}
		op := stage[0]
		switch op.Key {
		case "$match":
			filter, ok := op.Value.(bson.D)
			if !ok {
				return nil, fmt.Errorf("$match expects a document, got %T", op.Value)
			}
			docs = filterDocs(docs, filter)
		case "$lookup":
			docs, err = s.lookup(docs, op.Value)
			if err != nil {
				return nil, err
			}
		case "$sort":
			keys, ok := op.Value.(bson.D)
			if !ok {
				return nil, fmt.Errorf("$sort expects a document, got %T", op.Value)
			}
			docs = sortDocs(docs, keys)
		case "$skip":
			n, _ := toInt64(op.Value)
			if n > int64(len(docs)) {
				n = int64(len(docs))
			}
			docs = docs[n:]
		case "$limit":
			n, _ := toInt64(op.Value)
			if n < int64(len(docs)) {
				docs = docs[:n]
			}
		case "$count":
			field, ok := op.Value.(string)
			if !ok {
				return nil, fmt.Errorf("$count expects a field name, got %T", op.Value)
			}
			counted, err := bson.Marshal(bson.D{{Key: field, Value: int64(len(docs))}})
			if err != nil {
				return nil, err
			}
			docs = []bson.Raw{counted}
		default:
			return nil, fmt.Errorf("unsupported pipeline stage %q", op.Key)
		}
	}
	return docs, nil
}

func filterDocs(docs []bson.Raw, filter bson.D) []bson.Raw {
	var out []bson.Raw
	for _, doc := range docs {
		if matches(doc, filter) {
			out = append(out, doc)
		}
	}
	return out
}

// lookup joins foreign documents under the "as" field, matching any
// element when the local field holds an array, as mongo's $lookup
// does.
func (s *Store) lookup(docs []bson.Raw, spec any) ([]bson.Raw, error) {
	def, ok := spec.(bson.D)
	if !ok {
		return nil, fmt.Errorf("$lookup expects a document, got %T", spec)
	}
	var from, localField, foreignField, as string
	for _, elem := range def {
		v, _ := elem.Value.(string)
		switch elem.Key {
		case "from":
			from = v
		case "localField":
			localField = v
		case "foreignField":
			foreignField = v
		case "as":
			as = v
		}
	}
	if from == "" || localField == "" || foreignField == "" || as == "" {
		return nil, fmt.Errorf("incomplete $lookup spec: %v", def)
	}

	foreign := s.collections[from]
	out := make([]bson.Raw, 0, len(docs))
	for _, doc := range docs {
		var joined bson.A
		if rv, err := doc.LookupErr(localField); err == nil {
			local := decodedValue(rv)
			for _, fdoc := range foreign {
				frv, err := fdoc.LookupErr(foreignField)
				if err != nil {
					continue
				}
				if valueEqual(local, decodedValue(frv)) || valueEqual(decodedValue(frv), local) {
					var sub bson.D
					if err := bson.Unmarshal(fdoc, &sub); err != nil {
						return nil, err
					}
					joined = append(joined, sub)
				}
			}
		}
		if joined == nil {
			joined = bson.A{}
		}
		var full bson.D
		if err := bson.Unmarshal(doc, &full); err != nil {
			return nil, err
		}
		full = append(full, bson.E{Key: as, Value: joined})
		remarshaled, err := bson.Marshal(full)
		if err != nil {
			return nil, err
		}
		out = append(out, remarshaled)
	}
	return out, nil
}

func sortDocs(docs []bson.Raw, keys bson.D) []bson.Raw {
	sorted := append([]bson.Raw{}, docs...)
	sort.SliceStable(sorted, func(i, j int) bool {
		for _, key := range keys {
			dir, _ := toInt64(key.Value)
			a, aerr := sorted[i].LookupErr(key.Key)
			b, berr := sorted[j].LookupErr(key.Key)
			if aerr != nil || berr != nil {
				continue
			}
			cmp, ok := compareValues(decodedValue(a), decodedValue(b))
			if !ok || cmp == 0 {
				continue
			}
			if dir < 0 {
				return cmp > 0
			}
			return cmp < 0
		}
		return false
	})
	return sorted
}
