package moderation

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var eventProcessDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name: "escoba_event_duration_sec",
	Help: "Total duration of moderation event processing",
}, []string{"type"})

var eventProcessCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "escoba_event_processed",
	Help: "Number of events processed",
}, []string{"type"})

var reviewApprovedCount = promauto.NewCounter(prometheus.CounterOpts{
	Name: "escoba_review_approved",
	Help: "Number of reviews approved after all images passed moderation",
})

var reviewRejectedCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "escoba_review_rejected",
	Help: "Number of review rejections, by cause",
}, []string{"cause"})

var noticeCreatedCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "escoba_notice_created",
	Help: "Number of infraction notices created, by type",
}, []string{"tipo"})

var userBannedCount = promauto.NewCounter(prometheus.CounterOpts{
	Name: "escoba_user_autobanned",
	Help: "Number of users auto-banned by notice escalation",
})

var objectDeleteCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "escoba_object_deletes",
	Help: "Number of object delete attempts, by outcome",
}, []string{"outcome"})
