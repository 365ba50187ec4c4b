package drive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"

	"github.com/drivepool/drivepool/internal/common"
	sc "github.com/drivepool/drivepool/internal/server/config"
)

// trashPrefix namespaces soft-deleted objects inside the bucket. The backend
// has no native trash, so trashed objects simply live under this prefix.
const trashPrefix = ".trash/"

// S3Client implements Client over one S3-compatible account.
//
// Folder identifiers are key prefixes ending in "/" (RootFolderID is the
// empty prefix); a folder exists when its zero-byte marker object does. File
// identifiers are full object keys, so a file's backing id changes only when
// it is re-parented.
type S3Client struct {
	client   *s3.Client
	uploader *manager.Uploader
	presign  *s3.PresignClient
	bucket   string
	endpoint string
	region   string
}

// NewS3Client authenticates one account's credentials into a usable client.
func NewS3Client(ctx context.Context, account sc.Account) (*S3Client, error) {
	if account.AccessKeyID == "" || account.SecretAccessKey == "" || account.Bucket == "" {
		return nil, fmt.Errorf("account %q is missing credentials or bucket: %w", account.OwnerEmail, common.ErrConfigInvalid)
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(account.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			account.AccessKeyID,
			account.SecretAccessKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("account %q: %w", account.OwnerEmail, common.ErrConfigInvalid)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if account.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(account.BaseEndpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Client{
		client:   client,
		uploader: manager.NewUploader(client),
		presign:  s3.NewPresignClient(client),
		bucket:   account.Bucket,
		endpoint: strings.TrimSuffix(account.BaseEndpoint, "/"),
		region:   account.Region,
	}, nil
}

func folderKey(parentID, name string) string {
	return parentID + name + "/"
}

func isNotFound(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchKey", "404":
			return true
		}
	}
	return false
}

// CreateFile streams body into the object at folderID+name.
func (c *S3Client) CreateFile(ctx context.Context, name, folderID, mimeType string, body io.Reader) (*File, error) {
	key := folderID + name

	_, err := c.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      &c.bucket,
		Key:         &key,
		Body:        body,
		ContentType: &mimeType,
	})
	if err != nil {
		return nil, fmt.Errorf("create %q: %w", key, common.ErrUpstreamFailure)
	}

	now := time.Now().UTC()
	return &File{ID: key, Name: name, MimeType: mimeType, CreatedAt: now, ModifiedAt: now}, nil
}

// UpdateFile replaces content in place. When the resolved folder differs from
// the one encoded in backingID, the object is written at its new key first
// and the old key deleted afterwards, so the file never has two live parents.
func (c *S3Client) UpdateFile(ctx context.Context, backingID, name, folderID, mimeType string, body io.Reader) (*File, error) {
	f, err := c.CreateFile(ctx, name, folderID, mimeType, body)
	if err != nil {
		return nil, err
	}

	if backingID != "" && backingID != f.ID {
		if err := c.DeleteFile(ctx, backingID); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// ListFiles returns one page of objects, separating live from trashed by key
// prefix. Marker objects (keys ending in "/") are reported as folders.
func (c *S3Client) ListFiles(ctx context.Context, q ListQuery, pageToken string) (*Page, error) {
	input := &s3.ListObjectsV2Input{Bucket: &c.bucket}
	if q.Trashed {
		input.Prefix = aws.String(trashPrefix)
	}
	if pageToken != "" {
		input.ContinuationToken = &pageToken
	}

	out, err := c.client.ListObjectsV2(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("list objects: %w", common.ErrUpstreamFailure)
	}

	page := &Page{}
	for _, obj := range out.Contents {
		key := aws.ToString(obj.Key)
		if !q.Trashed && strings.HasPrefix(key, trashPrefix) {
			continue
		}

		f := File{
			ID:       key,
			Name:     baseName(key),
			IsFolder: strings.HasSuffix(key, "/"),
			Trashed:  strings.HasPrefix(key, trashPrefix),
			Size:     aws.ToInt64(obj.Size),
		}
		if obj.LastModified != nil {
			f.ModifiedAt = *obj.LastModified
		}
		page.Files = append(page.Files, f)
	}
	if aws.ToBool(out.IsTruncated) {
		page.NextToken = aws.ToString(out.NextContinuationToken)
	}
	return page, nil
}

func baseName(key string) string {
	trimmed := strings.TrimSuffix(key, "/")
	if i := strings.LastIndexByte(trimmed, '/'); i >= 0 {
		return trimmed[i+1:]
	}
	return trimmed
}

// DeleteFile permanently removes one object.
func (c *S3Client) DeleteFile(ctx context.Context, backingID string) error {
	_, err := c.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: &c.bucket,
		Key:    &backingID,
	})
	if err != nil {
		return fmt.Errorf("delete %q: %w", backingID, common.ErrUpstreamFailure)
	}
	return nil
}

// FindFolder checks for the folder's marker object.
func (c *S3Client) FindFolder(ctx context.Context, name, parentID string) (*Folder, error) {
	key := folderKey(parentID, name)

	_, err := c.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: &c.bucket,
		Key:    &key,
	})
	if err != nil {
		if isNotFound(err) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("head %q: %w", key, common.ErrUpstreamFailure)
	}
	return &Folder{ID: key, Name: name}, nil
}

// CreateFolder writes the folder's zero-byte marker object. Idempotent: two
// racing creations of the same path converge on the same key.
func (c *S3Client) CreateFolder(ctx context.Context, name, parentID string) (*Folder, error) {
	key := folderKey(parentID, name)

	_, err := c.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: &c.bucket,
		Key:    &key,
		Body:   strings.NewReader(""),
	})
	if err != nil {
		return nil, fmt.Errorf("create folder %q: %w", key, common.ErrUpstreamFailure)
	}
	return &Folder{ID: key, Name: name}, nil
}

// SetPermission maps grants onto object ACLs: "anyone reader" becomes the
// public-read canned ACL, named principals get read or full-control grants.
func (c *S3Client) SetPermission(ctx context.Context, backingID string, p Permission) error {
	input := &s3.PutObjectAclInput{
		Bucket: &c.bucket,
		Key:    &backingID,
	}

	switch {
	case p.Type == "anyone":
		input.ACL = "public-read"
	case p.Role == "writer":
		input.GrantFullControl = aws.String(fmt.Sprintf("emailAddress=%q", p.Grantee))
	default:
		input.GrantRead = aws.String(fmt.Sprintf("emailAddress=%q", p.Grantee))
	}

	if _, err := c.client.PutObjectAcl(ctx, input); err != nil {
		return fmt.Errorf("set permission on %q: %w", backingID, common.ErrUpstreamFailure)
	}
	return nil
}

// DownloadURL derives the stable link for a backing identifier. Objects made
// public-read are downloadable at this URL; private ones need PresignGet.
func (c *S3Client) DownloadURL(backingID string) string {
	if c.endpoint != "" {
		return fmt.Sprintf("%s/%s/%s", c.endpoint, c.bucket, backingID)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", c.bucket, c.region, backingID)
}

// PresignGet returns a short-lived GET link. Signing is local; no round trip.
func (c *S3Client) PresignGet(ctx context.Context, backingID string, ttl time.Duration) (string, error) {
	req, err := c.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: &c.bucket,
		Key:    &backingID,
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", fmt.Errorf("presign %q: %w", backingID, common.ErrUpstreamFailure)
	}
	return req.URL, nil
}
