package control

import "time"

// Meta is the tagged, versioned metadata snapshot getMeta returns.
type Meta struct {
	SchemaVersion    int               `json:"schema_version"`
	UsedSpaceGB      float64           `json:"used_space_gb"`
	IsRecording      bool              `json:"is_recording"`
	Directory        string            `json:"directory"`
	CurrentTimeUTC   string            `json:"current_time_utc"`
	Schedule         []MetaWindow      `json:"schedule"`
	ProcessedSchedule []MetaProcessed  `json:"processed_schedule"`
	Tracking         bool              `json:"tracking"`
}

// MetaWindow is one schedule entry in a Meta snapshot.
type MetaWindow struct {
	Name string    `json:"name"`
	Rise time.Time `json:"rise_utc"`
	Set  time.Time `json:"set_utc"`
}

// MetaProcessed is one processed-list entry, including the partial
// flag.
type MetaProcessed struct {
	MetaWindow
	Partial bool `json:"partial"`
}

const metaSchemaVersion = 1
