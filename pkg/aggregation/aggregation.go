// Package aggregation builds ordered MongoDB aggregation pipelines.
// Stages accumulate in call order and render to the driver's
// mongo.Pipeline. Reference fields cooperate naturally with Lookup:
// they persist as bare identifiers, so a stored reference field is
// directly usable as the local join key.
package aggregation

import (
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// Pipeline accumulates aggregation stages in order.
type Pipeline struct {
	stages []bson.D
}

// New returns an empty pipeline.
func New() *Pipeline {
	return &Pipeline{}
}

// Lookup describes a $lookup join. The joined documents land under As
// as a peer of the join key field; they are not folded back into a
// reference wrapper.
type Lookup struct {
	From         string
	LocalField   string
	ForeignField string
	As           string
}

// Match appends a $match stage.
func (p *Pipeline) Match(filter bson.D) *Pipeline {
	return p.append("$match", filter)
}

// Lookup appends a $lookup stage.
func (p *Pipeline) Lookup(l Lookup) *Pipeline {
	return p.append("$lookup", bson.D{
		{Key: "from", Value: l.From},
		{Key: "localField", Value: l.LocalField},
		{Key: "foreignField", Value: l.ForeignField},
		{Key: "as", Value: l.As},
	})
}

// Unwind appends an $unwind stage over the given field path, which
// must include the $ prefix.
func (p *Pipeline) Unwind(path string) *Pipeline {
	return p.append("$unwind", path)
}

// Project appends a $project stage.
func (p *Pipeline) Project(projection bson.D) *Pipeline {
	return p.append("$project", projection)
}

// Group appends a $group stage with the given _id expression and
// accumulator fields.
func (p *Pipeline) Group(id any, fields bson.D) *Pipeline {
	group := bson.D{{Key: "_id", Value: id}}
	group = append(group, fields...)
	return p.append("$group", group)
}

// Sort appends a $sort stage.
func (p *Pipeline) Sort(keys bson.D) *Pipeline {
	return p.append("$sort", keys)
}

// Skip appends a $skip stage.
func (p *Pipeline) Skip(n int64) *Pipeline {
	return p.append("$skip", n)
}

// Limit appends a $limit stage.
func (p *Pipeline) Limit(n int64) *Pipeline {
	return p.append("$limit", n)
}

// Count appends a $count stage writing the document count to field.
func (p *Pipeline) Count(field string) *Pipeline {
	return p.append("$count", field)
}

// Stages renders the accumulated stages as a driver pipeline.
func (p *Pipeline) Stages() mongo.Pipeline {
	out := make(mongo.Pipeline, len(p.stages))
	copy(out, p.stages)
	return out
}

func (p *Pipeline) append(op string, value any) *Pipeline {
	p.stages = append(p.stages, bson.D{{Key: op, Value: value}})
	return p
}
