package constants

import "os"

func GetOutputDir() string {
	path := os.Getenv("VOICELEAD_OUTPUT_DIR")
	if path != "" {
		return path
	}
	return "./out"
}

func GetDynamoEndpoint() string {
	endpoint := os.Getenv("VOICELEAD_DYNAMO_ENDPOINT")
	if endpoint != "" {
		return endpoint
	}
	return "http://localhost:8000"
}

func GetReportTable() string {
	table := os.Getenv("VOICELEAD_REPORT_TABLE")
	if table != "" {
		return table
	}
	return "voicelead-runs"
}

// EnvPrefix is the prefix of environment variables overriding settings files.
const EnvPrefix = "VOICELEAD_"

// MaxSearchCardinality bounds scale sizes; the search is factorial in it.
const MaxSearchCardinality = 12

const DefaultTicksPerBeat = 480
