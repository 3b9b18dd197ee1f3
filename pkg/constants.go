package shared

const (
	ServiceWebhook = "strava-webhook"
	ServiceExtract = "extract-activities"
	ServiceLoad    = "load-activities"

	TopicActivityChanged = "topic-strava-activity-changed"

	CollectionExecutions = "executions"

	DefaultStateObject    = "state.json"
	DefaultWarehouseTable = "activities"

	StravaAPIBaseURL  = "https://www.strava.com/api/v3"
	StravaTokenURL    = "https://www.strava.com/oauth/token"
	ActivityEventType = "com.stravapipeline.activity.changed"
	WebhookSource     = "/strava/webhook"
)
