package report

import (
	"bytes"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/hashicorp/go-hclog"
)

// UploadJSON renders the report as JSON and uploads it to an S3 bucket under
// reports/<runId>.json. Region and credentials come from the default AWS
// environment chain.
func UploadJSON(r *Report, bucket string, logger hclog.Logger) (string, error) {
	var buf bytes.Buffer
	if err := r.WriteJSON(&buf); err != nil {
		return "", fmt.Errorf("failed to render report: %w", err)
	}

	sess, err := session.NewSession()
	if err != nil {
		return "", fmt.Errorf("failed to create AWS session: %w", err)
	}
	uploader := s3manager.NewUploader(sess)

	key := fmt.Sprintf("reports/%s.json", r.RunID)
	logger.Info("uploading sync report", "bucket", bucket, "key", key)
	result, err := uploader.Upload(&s3manager.UploadInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   &buf,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload report: %w", err)
	}

	logger.Info("uploaded sync report", "location", result.Location)
	return result.Location, nil
}
