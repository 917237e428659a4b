package session

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	activeSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "clozemark_sessions_active",
		Help: "Number of open editing sessions",
	})
	messagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clozemark_session_messages_total",
		Help: "Client messages handled by type and reply type",
	}, []string{"type", "reply"})
	messageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "clozemark_session_message_duration_seconds",
		Help:    "Time spent handling one client message",
		Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
	}, []string{"type"})
	originRejections = promauto.NewCounter(prometheus.CounterOpts{
		Name: "clozemark_session_origin_rejections_total",
		Help: "Websocket upgrades refused for their Origin header",
	})
	rateLimited = promauto.NewCounter(prometheus.CounterOpts{
		Name: "clozemark_session_rate_limited_total",
		Help: "Sessions closed for exceeding the message rate",
	})
)

// observeMessage records one handled message. Undecodable messages count
// under type "invalid" and unrecognised ones under "unknown".
func observeMessage(msgType, replyType string, d time.Duration) {
	switch msgType {
	case TypeInput, TypePaste, TypeClick, TypeKey, TypeCommand, TypeLoad, TypeSave:
	case "":
		msgType = "invalid"
	default:
		msgType = "unknown"
	}
	messagesTotal.WithLabelValues(msgType, replyType).Inc()
	messageDuration.WithLabelValues(msgType).Observe(d.Seconds())
}
