package services

import (
	"context"
	"fmt"
	"mime/multipart"
	"os"
	"path"

	"campusmarket_back_end/internal/database"

	"github.com/minio/minio-go/v7"
)

// UploadProductImage pousse l'image d'un produit dans le bucket MinIO et
// renvoie son URL publique. L'objet est nommé d'après l'id produit pour
// éviter les collisions de noms de fichiers.
func UploadProductImage(ctx context.Context, productID string, file *multipart.FileHeader) (string, error) {
	if database.MinIO == nil {
		return "", fmt.Errorf("MinIO non initialisé")
	}

	f, err := file.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()

	bucket := os.Getenv("MINIO_BUCKET")
	if bucket == "" {
		bucket = "product-images"
	}
	objectName := productID + path.Ext(file.Filename)

	_, err = database.MinIO.PutObject(ctx, bucket, objectName, f, file.Size,
		minio.PutObjectOptions{ContentType: file.Header.Get("Content-Type")})
	if err != nil {
		return "", err
	}

	scheme := "http"
	if os.Getenv("MINIO_USE_SSL") == "true" {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", scheme, os.Getenv("MINIO_ENDPOINT"), bucket, objectName), nil
}
