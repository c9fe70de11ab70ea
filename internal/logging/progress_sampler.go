package logging

import "strings"

// ProgressSampler thins pipeline progress events for non-interactive output.
// An event is emitted when the task or step changes, or when the overall
// percent enters a new bucket.
type ProgressSampler struct {
	bucketSize float64
	lastTask   string
	lastStep   string
	lastBucket int
}

// NewProgressSampler constructs a sampler with the given bucket width in
// percent (default 10).
func NewProgressSampler(bucketSize float64) *ProgressSampler {
	if bucketSize <= 0 {
		bucketSize = 10
	}
	return &ProgressSampler{bucketSize: bucketSize, lastBucket: -1}
}

// ShouldLog reports whether the event should be written. A nil sampler
// emits everything.
func (s *ProgressSampler) ShouldLog(taskID, step string, percent float64) bool {
	if s == nil {
		return true
	}
	step = strings.TrimSpace(step)
	emit := false
	if taskID != s.lastTask {
		s.lastTask = taskID
		s.lastStep = ""
		s.lastBucket = -1
	}
	if step != "" && step != s.lastStep {
		s.lastStep = step
		emit = true
	}
	if percent >= 0 {
		if percent > 100 {
			percent = 100
		}
		bucket := int(percent / s.bucketSize)
		if bucket > s.lastBucket {
			s.lastBucket = bucket
			emit = true
		}
	}
	return emit
}

// Reset clears the sampler state.
func (s *ProgressSampler) Reset() {
	if s == nil {
		return
	}
	s.lastTask = ""
	s.lastStep = ""
	s.lastBucket = -1
}
