package graph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// CypherResult is the subset of neo4j.ResultWithContext the loader reads.
type CypherResult interface {
	Next(ctx context.Context) bool
	Record() *neo4j.Record
	Err() error
}

// CypherSession runs read queries.
type CypherSession interface {
	Run(ctx context.Context, cypher string, params map[string]any) (CypherResult, error)
	Close(ctx context.Context) error
}

// SessionOpener creates sessions. Tests substitute a fake.
type SessionOpener interface {
	OpenSession(ctx context.Context) CypherSession
}

type driverOpener struct {
	driver   neo4j.DriverWithContext
	database string
}

func (o driverOpener) OpenSession(ctx context.Context) CypherSession {
	return driverSession{o.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeRead,
		DatabaseName: o.database,
	})}
}

type driverSession struct{ sess neo4j.SessionWithContext }

func (s driverSession) Run(ctx context.Context, cypher string, params map[string]any) (CypherResult, error) {
	res, err := s.sess.Run(ctx, cypher, params)
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (s driverSession) Close(ctx context.Context) error { return s.sess.Close(ctx) }

// Neo4jLoader reads the statistics graph out of Neo4j. It only ever opens
// read sessions.
//
// Expected schema:
//
//	(:Year {year, description})
//	(:Catalog {id, name})-[:STATUS {description}]->(:Year)
//	(:Area {id, name, label})-[:PART_OF]->(:Area)
//	(:Index {id, name, unit})-[:PART_OF]->(:Index)
//	(:Index)-[:BELONGS_TO]->(:Catalog)
//	(:Index)-[:HAS_RECORD {value, area}]->(:Year)
type Neo4jLoader struct {
	opener SessionOpener
}

// NewNeo4jLoader creates a loader over a driver. database may be empty for
// the server default.
func NewNeo4jLoader(driver neo4j.DriverWithContext, database string) *Neo4jLoader {
	return &Neo4jLoader{opener: driverOpener{driver: driver, database: database}}
}

// NewNeo4jLoaderWithOpener creates a loader over a custom session opener.
func NewNeo4jLoaderWithOpener(opener SessionOpener) *Neo4jLoader {
	return &Neo4jLoader{opener: opener}
}

const (
	cypherYears = `MATCH (y:Year) RETURN y.year AS year, y.description AS description`

	cypherCatalogs = `MATCH (c:Catalog) RETURN c.id AS id, c.name AS name`

	cypherStatuses = `MATCH (c:Catalog)-[s:STATUS]->(y:Year)
		RETURN c.name AS catalog, y.year AS year, s.description AS description`

	cypherAreas = `MATCH (a:Area)
		OPTIONAL MATCH (a)-[:PART_OF]->(p:Area)
		RETURN a.id AS id, a.name AS name, a.label AS label, p.name AS parent`

	cypherIndexes = `MATCH (i:Index)
		OPTIONAL MATCH (i)-[:PART_OF]->(p:Index)
		OPTIONAL MATCH (i)-[:BELONGS_TO]->(c:Catalog)
		RETURN i.id AS id, i.name AS name, i.unit AS unit, p.name AS parent, c.name AS catalog`

	cypherRecords = `MATCH (i:Index)-[r:HAS_RECORD]->(y:Year)
		RETURN i.name AS index, y.year AS year, r.area AS area, r.value AS value`
)

// Load reads every node and record and builds a validated Snapshot.
func (l *Neo4jLoader) Load(ctx context.Context) (*Snapshot, error) {
	sess := l.opener.OpenSession(ctx)
	defer sess.Close(ctx)

	var data SnapshotData

	err := each(ctx, sess, cypherYears, func(r *neo4j.Record) error {
		data.Years = append(data.Years, YearData{
			Year:        intProp(r, "year"),
			Description: strProp(r, "description"),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("graph: load years: %w", err)
	}

	catalogs := make(map[string]int)
	err = each(ctx, sess, cypherCatalogs, func(r *neo4j.Record) error {
		name := strProp(r, "name")
		catalogs[name] = len(data.Catalogs)
		data.Catalogs = append(data.Catalogs, CatalogData{ID: int64(intProp(r, "id")), Name: name})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("graph: load catalogs: %w", err)
	}

	err = each(ctx, sess, cypherStatuses, func(r *neo4j.Record) error {
		i, ok := catalogs[strProp(r, "catalog")]
		if !ok {
			return nil
		}
		c := &data.Catalogs[i]
		if c.Descriptions == nil {
			c.Descriptions = make(map[int]string)
		}
		c.Descriptions[intProp(r, "year")] = strProp(r, "description")
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("graph: load catalog status: %w", err)
	}

	err = each(ctx, sess, cypherAreas, func(r *neo4j.Record) error {
		data.Areas = append(data.Areas, AreaData{
			ID:     int64(intProp(r, "id")),
			Name:   strProp(r, "name"),
			Label:  strProp(r, "label"),
			Parent: strProp(r, "parent"),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("graph: load areas: %w", err)
	}

	indexes := make(map[string]int)
	err = each(ctx, sess, cypherIndexes, func(r *neo4j.Record) error {
		name := strProp(r, "name")
		indexes[name] = len(data.Indexes)
		data.Indexes = append(data.Indexes, IndexData{
			ID:      int64(intProp(r, "id")),
			Name:    name,
			Unit:    strProp(r, "unit"),
			Parent:  strProp(r, "parent"),
			Catalog: strProp(r, "catalog"),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("graph: load indexes: %w", err)
	}

	err = each(ctx, sess, cypherRecords, func(r *neo4j.Record) error {
		name := strProp(r, "index")
		i, ok := indexes[name]
		if !ok {
			return fmt.Errorf("record for unknown index %q", name)
		}
		rec := RecordData{Year: intProp(r, "year"), Area: strProp(r, "area")}
		raw, _ := r.Get("value")
		switch v := raw.(type) {
		case nil:
			// an edge without a value is not a record
			return nil
		case float64:
			rec.Value = &v
		case int64:
			f := float64(v)
			rec.Value = &f
		case string:
			rec.Text = v
		default:
			rec.Text = fmt.Sprint(v)
		}
		data.Indexes[i].Records = append(data.Indexes[i].Records, rec)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("graph: load records: %w", err)
	}

	snap, err := NewSnapshot(data)
	if err != nil {
		return nil, fmt.Errorf("graph: load: %w", err)
	}
	return snap, nil
}

// each runs cypher and calls fn for every row.
func each(ctx context.Context, sess CypherSession, cypher string, fn func(*neo4j.Record) error) error {
	result, err := sess.Run(ctx, cypher, nil)
	if err != nil {
		return err
	}
	for result.Next(ctx) {
		if err := fn(result.Record()); err != nil {
			return err
		}
	}
	return result.Err()
}

func strProp(r *neo4j.Record, key string) string {
	v, _ := r.Get(key)
	s, _ := v.(string)
	return s
}

func intProp(r *neo4j.Record, key string) int {
	v, _ := r.Get(key)
	switch n := v.(type) {
	case int64:
		return int(n)
	case float64:
		return int(n)
	}
	return 0
}
