package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Submission outcomes used as the "outcome" label value.
const (
	OutcomeAccepted     = "accepted"
	OutcomeInvalid      = "invalid"
	OutcomeDuplicate    = "duplicate"
	OutcomeUploadFailed = "upload_failed"
	OutcomeSystemError  = "system_error"
)

var (
	SubmissionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "school_submissions_total",
		Help: "School submissions by terminal outcome.",
	}, []string{"outcome"})

	ImageUploadsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "school_image_uploads_total",
		Help: "Images stored as new objects.",
	})

	ImageDedupHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "school_image_dedup_hits_total",
		Help: "Uploads answered from an existing object with identical content.",
	})
)
