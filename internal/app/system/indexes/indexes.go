// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	donorstore "github.com/dalemusser/bloodlink/internal/app/store/donors"
	emergencystore "github.com/dalemusser/bloodlink/internal/app/store/emergencies"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// Options selects optional indexes.
type Options struct {
	// UniquePhone replaces the plain donors.phone index with a unique one.
	// Registration still does its own existence check first; the index only
	// closes the window between that check and the insert.
	UniquePhone bool
}

/*
EnsureAll is called at startup. Each ensure* function is idempotent.
We aggregate errors so any problem is visible and startup can fail fast.
*/
func EnsureAll(ctx context.Context, db *mongo.Database, opts Options) error {
	var problems []string

	if err := ensureDonors(ctx, db, opts); err != nil {
		problems = append(problems, donorstore.Collection+": "+err.Error())
	}
	if err := ensureEmergencyRequests(ctx, db); err != nil {
		problems = append(problems, emergencystore.Collection+": "+err.Error())
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Core helper: reconcile a set of desired indexes for one collection         */
/* -------------------------------------------------------------------------- */

type existingIndex struct {
	Name   string `bson:"name"`
	Key    bson.D `bson:"key"`
	Unique *bool  `bson:"unique,omitempty"`
}

func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ", ")
}

func boolVal(p *bool) bool { return p != nil && *p }

// Mongo/DocDB sometimes returns IndexOptionsConflict when an index with the
// same keys already exists under a different name (or options differ).
func isOptionsConflictErr(err error) bool {
	return err != nil && strings.Contains(err.Error(), "IndexOptionsConflict")
}

// isDuplicateKeyErr also matches on the message, which some Mongo-compatible
// servers return without a parsed code.
func isDuplicateKeyErr(err error) bool {
	return wafflemongo.IsDup(err) || (err != nil && strings.Contains(err.Error(), "E11000"))
}

// duplicateHint points operators at the offending documents when a unique
// index cannot be built.
func duplicateHint(coll, sig string) string {
	if coll == donorstore.Collection && strings.HasPrefix(sig, "phone:") {
		return " (duplicate phones exist; find them with " +
			`db.donors.aggregate([{ $group: { _id: "$phone", n: { $sum: 1 } } }, { $match: { n: { $gt: 1 } } }])` + ")"
	}
	return " (duplicates present)"
}

func listIndexes(ctx context.Context, coll *mongo.Collection) map[string]existingIndex {
	existing := map[string]existingIndex{} // sig -> index
	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		return existing
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var idx existingIndex
		if err := cur.Decode(&idx); err != nil {
			zap.L().Warn("failed to decode existing index",
				zap.String("collection", coll.Name()),
				zap.Error(err))
			continue
		}
		existing[keySig(idx.Key)] = idx
	}
	return existing
}

// recreate drops an index and creates the desired model in its place.
func recreate(ctx context.Context, coll *mongo.Collection, dropName string, m mongo.IndexModel, sig string, unique bool) error {
	if _, err := coll.Indexes().DropOne(ctx, dropName); err != nil {
		return fmt.Errorf("drop %s failed: %w", dropName, err)
	}
	if _, err := coll.Indexes().CreateOne(ctx, m); err != nil {
		if unique && isDuplicateKeyErr(err) {
			return fmt.Errorf("cannot create unique index%s", duplicateHint(coll.Name(), sig))
		}
		return err
	}
	return nil
}

func ensureIndexSet(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel) error {
	var errs []string

	for _, m := range models {
		var desiredName string
		var desiredUnique *bool
		if m.Options != nil {
			if m.Options.Name != nil {
				desiredName = *m.Options.Name
			}
			desiredUnique = m.Options.Unique
		}
		desiredSig := keySig(m.Keys.(bson.D))
		unique := boolVal(desiredUnique)

		start := time.Now()
		fields := []zap.Field{
			zap.String("collection", coll.Name()),
			zap.String("name", desiredName),
			zap.String("keys", desiredSig),
			zap.Bool("unique", unique),
		}
		zap.L().Info("ensuring index", fields...)

		fail := func(err error) {
			zap.L().Warn("index ensure failed", append(fields,
				zap.String("took", time.Since(start).String()),
				zap.Error(err))...)
			errs = append(errs, fmt.Sprintf("%s(%s): %v", coll.Name(), desiredName, err))
		}

		// 1) Same key pattern exists already.
		if ex, ok := listIndexes(ctx, coll)[desiredSig]; ok {
			switch {
			case boolVal(ex.Unique) != unique:
				// Options mismatch (e.g., switching phone to unique). Drop & recreate.
				if err := recreate(ctx, coll, ex.Name, m, desiredSig, unique); err != nil {
					fail(err)
					continue
				}
				zap.L().Info("index dropped and recreated", append(fields,
					zap.String("took", time.Since(start).String()))...)
			case desiredName != "" && ex.Name != desiredName:
				if err := recreate(ctx, coll, ex.Name, m, desiredSig, unique); err != nil {
					fail(err)
					continue
				}
				zap.L().Info("index renamed", append(fields,
					zap.String("from", ex.Name),
					zap.String("took", time.Since(start).String()))...)
			default:
				zap.L().Info("reusing existing index", append(fields,
					zap.String("took", time.Since(start).String()))...)
			}
			continue
		}

		// 2) No existing index with the same keys: create it.
		created, err := coll.Indexes().CreateOne(ctx, m)
		switch {
		case err == nil:
			zap.L().Info("index ensured", append(fields,
				zap.String("created_name", created),
				zap.String("took", time.Since(start).String()))...)
		case isOptionsConflictErr(err):
			if ex, ok := listIndexes(ctx, coll)[desiredSig]; ok && boolVal(ex.Unique) == unique {
				zap.L().Info("reusing existing index (post-conflict)", append(fields,
					zap.String("took", time.Since(start).String()))...)
				continue
			} else if ok {
				if err := recreate(ctx, coll, ex.Name, m, desiredSig, unique); err != nil {
					fail(err)
				}
				continue
			}
			fail(err)
		case unique && isDuplicateKeyErr(err):
			fail(fmt.Errorf("cannot create unique index%s", duplicateHint(coll.Name(), desiredSig)))
		default:
			fail(err)
		}
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Collection-specific index sets                                              */
/* -------------------------------------------------------------------------- */

// PhoneIndexName returns the name the donors.phone index carries in the
// given mode.
func PhoneIndexName(unique bool) string {
	if unique {
		return "uniq_donors_phone"
	}
	return "idx_donors_phone"
}

func ensureDonors(ctx context.Context, db *mongo.Database, opts Options) error {
	c := db.Collection(donorstore.Collection)

	phone := options.Index().SetName(PhoneIndexName(opts.UniquePhone))
	if opts.UniquePhone {
		phone.SetUnique(true)
	}

	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// 1) Dashboard login and the registration duplicate check
		{
			Keys:    bson.D{{Key: "phone", Value: 1}},
			Options: phone,
		},
		// 2) Search by blood group, optionally narrowed by city
		{
			Keys:    bson.D{{Key: "blood_group", Value: 1}, {Key: "city", Value: 1}},
			Options: options.Index().SetName("idx_donors_group_city"),
		},
		// 3) Search by city alone
		{
			Keys:    bson.D{{Key: "city", Value: 1}},
			Options: options.Index().SetName("idx_donors_city"),
		},
		// 4) Matching count at request creation
		{
			Keys:    bson.D{{Key: "blood_group", Value: 1}, {Key: "available", Value: 1}},
			Options: options.Index().SetName("idx_donors_group_available"),
		},
	})
}

func ensureEmergencyRequests(ctx context.Context, db *mongo.Database) error {
	c := db.Collection(emergencystore.Collection)
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// Dashboard "requests for my group"
		{
			Keys:    bson.D{{Key: "blood_group", Value: 1}},
			Options: options.Index().SetName("idx_requests_group"),
		},
		{
			Keys:    bson.D{{Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_requests_created_at"),
		},
	})
}
