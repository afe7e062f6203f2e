package archive

import (
	"bytes"
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/pbkdf2"
)

// Uploader pushes vocabulary exports to S3, optionally encrypted at rest
// with a user-supplied password.
type Uploader struct {
	uploader *manager.Uploader
	client   *s3.Client
	bucket   string
}

// Options configures the Uploader. AccessKey/SecretKey empty means the
// default AWS credential chain.
type Options struct {
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
}

func NewUploader(ctx context.Context, opts Options) (*Uploader, error) {
	if opts.Bucket == "" {
		return nil, fmt.Errorf("archive bucket not configured")
	}

	loadOpts := []func(*awscfg.LoadOptions) error{}
	if opts.Region != "" {
		loadOpts = append(loadOpts, awscfg.WithRegion(opts.Region))
	}
	if opts.AccessKey != "" && opts.SecretKey != "" {
		loadOpts = append(loadOpts, awscfg.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, "")))
	}

	cfg, err := awscfg.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	cli := s3.NewFromConfig(cfg)
	return &Uploader{
		uploader: manager.NewUploader(cli),
		client:   cli,
		bucket:   opts.Bucket,
	}, nil
}

// Ping verifies the bucket is reachable with the configured credentials.
func (u *Uploader) Ping(ctx context.Context) error {
	_, err := u.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(u.bucket)})
	return err
}

// Upload stores data under key. A non-empty password encrypts the payload
// with AES-GCM before upload; the encryption format is recorded in object
// metadata. Returns the s3:// URL of the object.
func (u *Uploader) Upload(ctx context.Context, key string, data []byte, contentType, password string) (string, error) {
	meta := map[string]string{}
	if password != "" {
		enc, err := Encrypt(data, password)
		if err != nil {
			return "", fmt.Errorf("encrypt export: %w", err)
		}
		data = enc
		meta["encryption-format"] = encryptionFormat
		contentType = "application/octet-stream"
	}

	_, err := u.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
		Metadata:    meta,
	})
	if err != nil {
		return "", fmt.Errorf("s3 upload: %w", err)
	}

	url := fmt.Sprintf("s3://%s/%s", u.bucket, key)
	log.Info().Str("url", url).Int("size", len(data)).Bool("encrypted", password != "").Msg("uploaded vocabulary export")
	return url, nil
}

// Payload layout: magic, 16-byte salt, GCM nonce, ciphertext.
const (
	encryptionFormat = "GCM-PBKDF2"
	payloadMagic     = "RCV1"
	saltSize         = 16
	pbkdf2Iterations = 100_000
	keySize          = 32
)

func deriveKey(password string, salt []byte) []byte {
	return pbkdf2.Key([]byte(password), salt, pbkdf2Iterations, keySize, sha256.New)
}

// Encrypt seals data with a key derived from password.
func Encrypt(data []byte, password string) ([]byte, error) {
	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(deriveKey(password, salt))
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}

	out := make([]byte, 0, len(payloadMagic)+saltSize+len(nonce)+len(data)+gcm.Overhead())
	out = append(out, payloadMagic...)
	out = append(out, salt...)
	out = append(out, nonce...)
	return gcm.Seal(out, nonce, data, nil), nil
}

// Decrypt reverses Encrypt. Used by tooling that pulls archives back down.
func Decrypt(payload []byte, password string) ([]byte, error) {
	if len(payload) < len(payloadMagic)+saltSize || string(payload[:len(payloadMagic)]) != payloadMagic {
		return nil, fmt.Errorf("not an encrypted archive payload")
	}
	rest := payload[len(payloadMagic):]
	salt := rest[:saltSize]
	rest = rest[saltSize:]

	block, err := aes.NewCipher(deriveKey(password, salt))
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	if len(rest) < gcm.NonceSize() {
		return nil, fmt.Errorf("encrypted payload truncated")
	}

	plain, err := gcm.Open(nil, rest[:gcm.NonceSize()], rest[gcm.NonceSize():], nil)
	if err != nil {
		return nil, fmt.Errorf("decrypt failed: %w", err)
	}
	return plain, nil
}
