package commands

import (
	"encoding/json"
	"os"

	"github.com/urfave/cli/v3"

	"wechat-cli/internal/envelope"
)

// emit prints a success envelope to stdout.
func emit(data any) error {
	return printEnvelope(envelope.Success(data))
}

// fail prints a failure envelope to stdout and signals exit code 1.
func fail(err error) error {
	_ = printEnvelope(envelope.Failure(err))
	return cli.Exit("", 1)
}

// failInvalid prints an invalid_argument envelope and signals exit code 1.
func failInvalid(message string) error {
	_ = printEnvelope(envelope.Invalid(message))
	return cli.Exit("", 1)
}

func printEnvelope(env envelope.Envelope) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(env)
}
