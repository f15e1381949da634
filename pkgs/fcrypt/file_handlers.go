package fcrypt

import (
	"fmt"
	"os"

	"filippo.io/age"
)

// EncryptFile writes an encrypted copy of inputPath to outputPath. The
// original file is left in place.
func EncryptFile(inputPath, outputPath string, recipient age.Recipient) error {
	inputFile, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("failed to open input file: %w", err)
	}
	defer func() {
		_ = inputFile.Close()
	}()

	outputFile, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() {
		_ = outputFile.Close()
	}()

	return EncryptReader(inputFile, outputFile, recipient)
}

// DecryptFile writes a decrypted copy of inputPath to outputPath. The
// encrypted file is left in place.
func DecryptFile(inputPath, outputPath string, identity age.Identity) error {
	inputFile, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("failed to open input file: %w", err)
	}
	defer func() {
		_ = inputFile.Close()
	}()

	outputFile, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() {
		_ = outputFile.Close()
	}()

	return DecryptReader(inputFile, outputFile, identity)
}
