package domain

type GameStatus string

const (
	StatusUninitialised GameStatus = "uninitialised"
	StatusQueued        GameStatus = "queued"
	StatusDownloading   GameStatus = "downloading"
	StatusInstalled     GameStatus = "installed"
	StatusError         GameStatus = "error"
)

// QueuedGame is one entry in the download queue. ID and Status mirror the
// registry agent for the same game; the two structures move together.
type QueuedGame struct {
	ID     string     `json:"id"`
	Status GameStatus `json:"status"`
}
