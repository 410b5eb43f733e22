package experience

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	transitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "experience_create_transitions_total",
		Help: "Create flow state transitions by state.",
	}, []string{"state"})

	photoUploads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "experience_photo_uploads_total",
		Help: "Photo uploads by result.",
	}, []string{"result"})
)
