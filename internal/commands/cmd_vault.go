package commands

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/jobflow-cli/jobflow/internal/core"
	"github.com/jobflow-cli/jobflow/pkgs/fcrypt"
)

type VaultCmd struct {
	coreFlags *core.Flags
}

func NewVaultCmd(coreFlags *core.Flags) *VaultCmd {
	return &VaultCmd{coreFlags: coreFlags}
}

func (vc *VaultCmd) Register(app *cli.Command) *cli.Command {
	cmds := []*cli.Command{
		{
			Name:  "encrypt",
			Usage: "encrypt all vaulted profile files in-place",
			Description: `Encrypts all profile files marked with 'vault: true' using age encryption.

The command will:
- Use the configured age recipient (public key) for encryption
- Create .age encrypted versions of the files
- Skip files that are already encrypted

Encrypted files use the age format and can only be decrypted with the
corresponding age identity (private key).`,
			Action: vc.encrypt,
		},
		{
			Name:  "decrypt",
			Usage: "decrypt all vaulted profile files in-place",
			Description: `Decrypts all vaulted .age profile files.

The command will:
- Use your configured age identity (private key) for decryption
- Restore the original unencrypted files
- Remove the .age encrypted versions after successful decryption
- Skip files that are already decrypted

Typically used when you need to edit profile secrets like account passwords.`,
			Action: vc.decrypt,
		},
	}

	app.Commands = append(app.Commands, cmds...)
	return app
}

func (vc *VaultCmd) encrypt(ctx context.Context, cmd *cli.Command) error {
	cfg, err := core.SetupEnv(vc.coreFlags.ConfigFilePath)
	if err != nil {
		return err
	}

	// Load the public key
	if len(cfg.Age.Recipients) == 0 {
		return fmt.Errorf("no age recipients configured in %s", vc.coreFlags.ConfigFilePath)
	}

	recipient, err := fcrypt.LoadPublicKey(cfg.Age.Recipients[0])
	if err != nil {
		return fmt.Errorf("failed to load public key: %w", err)
	}

	files := cfg.EncryptedFiles()
	if len(files) == 0 {
		log.Info().Msg("No files configured for encryption")
		return nil
	}

	log.Info().Int("count", len(files)).Msg("Found files to encrypt")

	encryptedCount := 0
	for _, file := range files {
		sourceFile, targetFile := vaultPair(file)

		// Check if source file exists
		if _, err := os.Stat(sourceFile); os.IsNotExist(err) {
			log.Debug().Str("file", sourceFile).Msg("Source file doesn't exist, skipping")
			continue
		}

		// Check if target file already exists
		if _, err := os.Stat(targetFile); err == nil {
			log.Debug().Str("file", targetFile).Msg("Encrypted file already exists, skipping")
			continue
		}

		log.Info().Str("source", sourceFile).Str("target", targetFile).Msg("Encrypting file")
		if err := fcrypt.EncryptFile(sourceFile, targetFile, recipient); err != nil {
			return fmt.Errorf("failed to encrypt %s: %w", sourceFile, err)
		}

		encryptedCount++
	}

	log.Info().Int("count", encryptedCount).Msg("Encryption complete")
	return nil
}

func (vc *VaultCmd) decrypt(ctx context.Context, cmd *cli.Command) error {
	cfg, err := core.SetupEnv(vc.coreFlags.ConfigFilePath)
	if err != nil {
		return err
	}

	identity, err := cfg.Age.ReadIdentity()
	if err != nil {
		return err
	}

	files := cfg.EncryptedFiles()
	if len(files) == 0 {
		log.Info().Msg("No files configured for decryption")
		return nil
	}

	log.Info().Int("count", len(files)).Msg("Found files to decrypt")

	decryptedCount := 0
	for _, file := range files {
		targetFile, sourceFile := vaultPair(file)

		// Check if source file exists
		if _, err := os.Stat(sourceFile); os.IsNotExist(err) {
			log.Debug().Str("file", sourceFile).Msg("Encrypted file doesn't exist, skipping")
			continue
		}

		// Check if target file already exists
		if _, err := os.Stat(targetFile); err == nil {
			log.Debug().Str("file", targetFile).Msg("Decrypted file already exists, skipping")
			continue
		}

		log.Info().Str("source", sourceFile).Str("target", targetFile).Msg("Decrypting file")
		if err := fcrypt.DecryptFile(sourceFile, targetFile, identity); err != nil {
			return fmt.Errorf("failed to decrypt %s: %w", sourceFile, err)
		}

		// Remove the encrypted file after successful decryption
		if err := os.Remove(sourceFile); err != nil {
			log.Warn().Str("file", sourceFile).Err(err).Msg("Failed to remove encrypted file after decryption")
		}

		decryptedCount++
	}

	log.Info().Int("count", decryptedCount).Msg("Decryption complete")
	return nil
}

// vaultPair maps a configured vault path to its (plain, encrypted) file
// pair, regardless of whether the config names the plain or the .age path.
func vaultPair(file string) (plain, encrypted string) {
	if strings.HasSuffix(file, ".age") {
		return strings.TrimSuffix(file, ".age"), file
	}

	return file, file + ".age"
}
