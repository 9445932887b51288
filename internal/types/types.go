package types

const (
	DefaultRoomType     = "living-room"
	DefaultStagingStyle = "modern"
)

// Room categories the staging API understands.
var RoomTypes = []string{
	"living-room",
	"bedroom",
	"kitchen",
	"dining-room",
	"home-office",
	"bathroom",
	"kids-room",
	"patio",
	"backyard",
}

// Design styles the staging API understands. The "empty" style is the
// furniture-removal mode and pairs with the removeFurniture flag.
var StagingStyles = []string{
	"modern",
	"scandinavian",
	"industrial",
	"mid-century",
	"farmhouse",
	"coastal",
	"luxury",
	"japandi",
	"empty",
}

func IsValidRoomType(roomType string) bool {
	return contains(RoomTypes, roomType)
}

func IsValidStagingStyle(style string) bool {
	return contains(StagingStyles, style)
}

func contains(values []string, value string) bool {
	for _, v := range values {
		if v == value {
			return true
		}
	}
	return false
}

// RestageRequest is the JSON body of the non-streaming refinement call.
type RestageRequest struct {
	StagedID        string `json:"stagedId"`
	RoomType        string `json:"roomType"`
	StagingStyle    string `json:"stagingStyle"`
	Prompt          string `json:"prompt,omitempty"`
	RemoveFurniture bool   `json:"removeFurniture,omitempty"`
}

// RestageData is the payload of a successful restage envelope.
type RestageData struct {
	StagedImageURL string `json:"stagedImageUrl"`
	StagedID       string `json:"stagedId"`
	RoomType       string `json:"roomType"`
	StagingStyle   string `json:"stagingStyle"`
	Prompt         string `json:"prompt"`
	Storage        string `json:"storage,omitempty"`
}

// APIErrorBody is the server's structured error shape, passed through to
// callers verbatim.
type APIErrorBody struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// Envelope wraps every non-streaming API response.
type Envelope struct {
	Success bool          `json:"success"`
	Data    *RestageData  `json:"data,omitempty"`
	Error   *APIErrorBody `json:"error,omitempty"`
}
