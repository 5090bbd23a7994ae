package utils

import (
	"context"
	"fmt"
	"io"
	"mime"
	"os"
	"path"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Object storage lives on Cloudflare R2 through the S3 API. Avatars and
// profile images are uploaded here and served via presigned URLs.

type r2Session struct {
	client *s3.Client
	bucket string
}

var (
	r2Once sync.Once
	r2     *r2Session
	r2Err  error
)

func getR2() (*r2Session, error) {
	r2Once.Do(func() {
		accountID := os.Getenv("R2_ACCOUNT_ID")
		accessKey := os.Getenv("R2_ACCESS_KEY_ID")
		secretKey := os.Getenv("R2_SECRET_ACCESS_KEY")
		bucket := os.Getenv("R2_BUCKET_NAME")
		if accountID == "" || accessKey == "" || secretKey == "" || bucket == "" {
			r2Err = fmt.Errorf("R2_ACCOUNT_ID, R2_ACCESS_KEY_ID, R2_SECRET_ACCESS_KEY and R2_BUCKET_NAME must be set")
			return
		}

		// region is required by the SDK but ignored by R2
		cfg, err := config.LoadDefaultConfig(context.Background(),
			config.WithRegion("auto"),
			config.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
			),
		)
		if err != nil {
			r2Err = fmt.Errorf("failed to load R2 config: %w", err)
			return
		}

		endpoint := fmt.Sprintf("https://%s.r2.cloudflarestorage.com", accountID)
		r2 = &r2Session{
			client: s3.NewFromConfig(cfg, func(o *s3.Options) {
				o.BaseEndpoint = aws.String(endpoint)
			}),
			bucket: bucket,
		}
	})
	return r2, r2Err
}

// UploadToS3 stores an object under objectName with a content type guessed
// from its extension.
func UploadToS3(objectName string, file io.Reader, fileSize int64) error {
	sess, err := getR2()
	if err != nil {
		return err
	}

	contentType := mime.TypeByExtension(path.Ext(objectName))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	_, err = sess.client.PutObject(context.Background(), &s3.PutObjectInput{
		Bucket:        aws.String(sess.bucket),
		Key:           aws.String(objectName),
		Body:          file,
		ContentLength: aws.Int64(fileSize),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("R2 upload failed: %w", err)
	}
	return nil
}

// GenerateSignedURL returns a presigned GET URL for the object.
func GenerateSignedURL(objectName string, expirySeconds int64) (string, error) {
	sess, err := getR2()
	if err != nil {
		return "", err
	}

	presigned, err := s3.NewPresignClient(sess.client).PresignGetObject(context.Background(),
		&s3.GetObjectInput{
			Bucket: aws.String(sess.bucket),
			Key:    aws.String(objectName),
		},
		func(po *s3.PresignOptions) {
			po.Expires = time.Duration(expirySeconds) * time.Second
		},
	)
	if err != nil {
		return "", fmt.Errorf("failed to presign R2 URL: %w", err)
	}
	return presigned.URL, nil
}

// UploadToS3AndPresign uploads and immediately returns a presigned URL for
// storing on the owning row.
func UploadToS3AndPresign(objectName string, file io.ReadSeeker, fileSize int64, expirySeconds int64) (string, error) {
	if err := UploadToS3(objectName, file, fileSize); err != nil {
		return "", err
	}
	return GenerateSignedURL(objectName, expirySeconds)
}

func DeleteFromS3(objectName string) error {
	sess, err := getR2()
	if err != nil {
		return err
	}
	_, err = sess.client.DeleteObject(context.Background(), &s3.DeleteObjectInput{
		Bucket: aws.String(sess.bucket),
		Key:    aws.String(objectName),
	})
	if err != nil {
		return fmt.Errorf("R2 delete failed: %w", err)
	}
	return nil
}
