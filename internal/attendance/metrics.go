package attendance

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	marksCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "campushub_attendance_marks_created_total",
		Help: "Attendance records created by marking batches.",
	})
	marksUpdated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "campushub_attendance_marks_updated_total",
		Help: "Attendance records overwritten by marking batches.",
	})
	marksFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "campushub_attendance_marks_failed_total",
		Help: "Batch entries rejected during marking.",
	})
	exportsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "campushub_attendance_exports_total",
		Help: "CSV exports generated.",
	})
)
