package audit

import (
	"time"

	id "gazetteer/pkg/domain"
)

// EventName identifies an auditable action.
type EventName string

const (
	EventCandidateSubmitted   EventName = "geo.candidate.submitted"
	EventCandidateReviewBegan EventName = "geo.candidate.review_began"
	EventCandidateApprovedNew EventName = "geo.candidate.approved_new"
	EventCandidateMerged      EventName = "geo.candidate.merged"
	EventCandidateRejected    EventName = "geo.candidate.rejected"
	EventUnitDeactivated      EventName = "geo.unit.deactivated"
	EventDescriptorUpdated    EventName = "geo.descriptor.updated"
	EventTenantSyncCompleted  EventName = "sync.tenant.completed"
	EventTenantSyncPartial    EventName = "sync.tenant.partial"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Timestamp   time.Time
	TenantID    id.TenantID
	ReviewerID  id.ReviewerID
	CountryCode id.CountryCode
	Action      EventName
	Subject     string
	Detail      string
}
