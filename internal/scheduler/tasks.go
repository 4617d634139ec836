package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskSearchReindex = "search.reindex"

const TaskIndexListing = "search.index_listing"

type SearchReindexPayload struct {
	RequestedBy string `json:"requestedBy,omitempty"`
}

type IndexListingPayload struct {
	ListingID string `json:"listingId"`
	// Content, when set, replaces the composite text built from the listing.
	Content string `json:"content,omitempty"`
}

func NewSearchReindexTask(payload SearchReindexPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSearchReindex, data), nil
}

func ParseSearchReindexPayload(task *asynq.Task) (SearchReindexPayload, error) {
	var payload SearchReindexPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return SearchReindexPayload{}, err
	}
	return payload, nil
}

func NewIndexListingTask(payload IndexListingPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskIndexListing, data), nil
}

func ParseIndexListingPayload(task *asynq.Task) (IndexListingPayload, error) {
	var payload IndexListingPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return IndexListingPayload{}, err
	}
	return payload, nil
}
