package seedfeedback

// HTTP status code constants.
const (
	StatusOK      = 200
	StatusCreated = 201
)

// Worker configuration constants.
const (
	workerChannelMultiplier = 2
	progressEvery           = 500
)

// Verification constants.
const (
	PercentageMultiplier = 100
)
