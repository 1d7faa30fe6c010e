package queue

const TypeScratchSweep = "scratch:sweep"

// ScratchSweepSchedule is the cron expression the worker registers the sweep under.
const ScratchSweepSchedule = "@every 15m"

type ScratchSweepPayload struct {
	Dir           string `json:"dir"`
	MaxAgeSeconds int64  `json:"max_age_seconds"`
}
