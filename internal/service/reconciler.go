package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"portfolio/internal/imageref"
	"portfolio/internal/storage"
)

// TaskReconcile names the queued maintenance task that runs a Reconciler.
const TaskReconcile = "reconcile"

// ReconcileReport summarises one sweep over the upload prefix.
type ReconcileReport struct {
	Scanned    int      `json:"scanned"`
	Referenced int      `json:"referenced"`
	Recent     int      `json:"recent"`
	Deleted    []string `json:"deleted"`
	Failed     []string `json:"failed"`
	DryRun     bool     `json:"dryRun"`
}

// Reconciler removes stored assets that no record refers to. Objects newer
// than the grace period are left alone so an upload whose record is still
// being saved is never swept.
type Reconciler struct {
	bucket   storage.Bucket
	resolver imageref.Resolver
	sources  []KeySource
	grace    time.Duration
	prefix   string
	log      zerolog.Logger
	now      func() time.Time
}

func NewReconciler(bucket storage.Bucket, resolver imageref.Resolver, sources []KeySource, grace time.Duration, prefix string, log zerolog.Logger) *Reconciler {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		prefix = UploadPrefix
	}
	return &Reconciler{
		bucket:   bucket,
		resolver: resolver,
		sources:  sources,
		grace:    grace,
		prefix:   prefix,
		log:      log,
		now:      time.Now,
	}
}

// Run sweeps once. When any reference source fails the sweep stops before
// deleting anything.
func (r *Reconciler) Run(ctx context.Context, dryRun bool) (ReconcileReport, error) {
	report := ReconcileReport{Deleted: []string{}, Failed: []string{}, DryRun: dryRun}

	referenced := make(map[string]struct{})
	for _, src := range r.sources {
		values, err := src.ImageKeys(ctx)
		if err != nil {
			return report, fmt.Errorf("collect references: %w", err)
		}
		for _, v := range values {
			if ref := r.resolver.Resolve(v); ref.IsKey() {
				referenced[ref.Value] = struct{}{}
			}
		}
	}

	objects, err := r.bucket.List(ctx, r.prefix)
	if err != nil {
		return report, fmt.Errorf("list assets: %w", err)
	}

	cutoff := r.now().Add(-r.grace)
	for _, obj := range objects {
		report.Scanned++
		if _, ok := referenced[obj.Key]; ok {
			report.Referenced++
			continue
		}
		if obj.LastModified.After(cutoff) {
			report.Recent++
			continue
		}
		if dryRun {
			report.Deleted = append(report.Deleted, obj.Key)
			continue
		}
		if err := r.bucket.Remove(ctx, obj.Key); err != nil {
			r.log.Warn().Err(err).Str("key", obj.Key).Msg("remove orphaned asset failed")
			report.Failed = append(report.Failed, obj.Key)
			continue
		}
		report.Deleted = append(report.Deleted, obj.Key)
	}

	r.log.Info().
		Int("scanned", report.Scanned).
		Int("deleted", len(report.Deleted)).
		Int("failed", len(report.Failed)).
		Bool("dry_run", dryRun).
		Msg("asset reconcile finished")
	return report, nil
}
