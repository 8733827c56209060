// Package aws adapts the engine's vfs.FS abstraction to mirror table and
// manifest files to S3 as they're written, so TableCache and the write path
// can run against a cloud-backed namespace without knowing it.
package aws

import (
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"

	"github.com/devlibx/pebble-core/cloud/common"
	"github.com/devlibx/pebble-core/vfs"
)

// CloudFS wraps a local or in-memory vfs.FS, mirroring every file it
// creates or renames up to S3. Reads, listing, and locking all pass
// through to the wrapped FS unchanged -- only the write-side operations
// that matter for durability (Create, Remove, Rename) touch S3.
type CloudFS struct {
	wrapperFs vfs.FS
	options   common.CloudFsOption
	s3Client  *s3.S3
}

var _ vfs.FS = (*CloudFS)(nil)

func (c *CloudFS) Create(name string) (vfs.File, error) {
	f, err := c.wrapperFs.Create(name)
	if err != nil {
		return nil, err
	}
	return NewCloudFile(f, name, c.options)
}

func (c *CloudFS) Link(oldname, newname string) error {
	return c.wrapperFs.Link(oldname, newname)
}

func (c *CloudFS) Open(name string, opts ...vfs.OpenOption) (vfs.File, error) {
	return c.wrapperFs.Open(name, opts...)
}

func (c *CloudFS) OpenDir(name string) (vfs.File, error) {
	return c.wrapperFs.OpenDir(name)
}

func (c *CloudFS) Remove(name string) error {
	if out, err := c.s3Client.DeleteObject(&s3.DeleteObjectInput{
		Bucket: aws.String(os.Getenv("S3_BUCKET")),
		Key:    aws.String(c.options.BasePath + "/" + name),
	}); err == nil {
		fmt.Println("delete S3 file", out)
	}
	return c.wrapperFs.Remove(name)
}

func (c *CloudFS) RemoveAll(name string) error {
	return c.wrapperFs.RemoveAll(name)
}

func (c *CloudFS) Rename(oldname, newname string) error {
	if baseFile, err := c.wrapperFs.Open(oldname); err == nil {
		if oldFile, err := NewCloudFile(baseFile, oldname, c.options); err == nil {
			oldFile.(*CloudFile).updateToS3(newname)
		}
	}
	return c.wrapperFs.Rename(oldname, newname)
}

func (c *CloudFS) ReuseForWrite(oldname, newname string) (vfs.File, error) {
	return c.wrapperFs.ReuseForWrite(oldname, newname)
}

func (c *CloudFS) MkdirAll(dir string, perm os.FileMode) error {
	return c.wrapperFs.MkdirAll(dir, perm)
}

func (c *CloudFS) Lock(name string) (vfs.Closer, error) {
	return c.wrapperFs.Lock(name)
}

func (c *CloudFS) List(dir string) ([]string, error) {
	return c.wrapperFs.List(dir)
}

func (c *CloudFS) Stat(name string) (os.FileInfo, error) {
	return c.wrapperFs.Stat(name)
}

func (c *CloudFS) PathBase(path string) string {
	return c.wrapperFs.PathBase(path)
}

func (c *CloudFS) PathJoin(elem ...string) string {
	return c.wrapperFs.PathJoin(elem...)
}

func (c *CloudFS) PathDir(path string) string {
	return c.wrapperFs.PathDir(path)
}

func (c *CloudFS) GetDiskUsage(path string) (vfs.DiskUsage, error) {
	return c.wrapperFs.GetDiskUsage(path)
}

// NewCloudFS wraps fs so that every file it creates is mirrored to S3
// under options.BasePath.
func NewCloudFS(fs vfs.FS, options common.CloudFsOption) vfs.FS {
	sess, _ := session.NewSession(&aws.Config{
		Region: aws.String("ap-south-1"),
	})
	return &CloudFS{
		wrapperFs: fs,
		options:   options,
		s3Client:  s3.New(sess),
	}
}
