package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/dkagawa/budgetline/internal/gcsuploader"
	"github.com/dkagawa/budgetline/internal/logger"
)

func main() {
	// Initialize structured logger
	log := logger.New()

	var (
		bucketName string
		objectName string
		filePath   string
	)

	flag.StringVar(&bucketName, "bucket", "", "GCS bucket name (required)")
	flag.StringVar(&objectName, "object", "", "GCS object name (optional; defaults to a dated documents/ path)")
	flag.StringVar(&filePath, "file", "", "Path to local budget document (required)")
	flag.Parse()

	if bucketName == "" || filePath == "" {
		log.Fatal().Msg("Usage: upload-document -bucket BUCKET_NAME -file /path/to/hb300.txt [-object OBJECT_NAME]")
	}

	if objectName == "" {
		objectName = gcsuploader.DocumentObjectName(filePath)
	}

	ctx := context.Background()
	ctx = logger.WithContext(ctx, log)

	log.Info().
		Str("bucket", bucketName).
		Str("object", objectName).
		Str("file", filePath).
		Msg("Uploading file to GCS")

	if err := gcsuploader.UploadFile(ctx, bucketName, objectName, filePath); err != nil {
		log.Fatal().Err(err).Msg("Upload failed")
	}

	fmt.Printf("Uploaded %s to gs://%s/%s\n", filePath, bucketName, objectName)
}
