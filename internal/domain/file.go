package domain

import "time"

// ObjectRef addresses an object within the content store.
type ObjectRef struct {
	Bucket string
	Key    string
}

// File is the metadata record for an uploaded object.
type File struct {
	ID        string
	OwnerID   string
	Bucket    string
	ObjectKey string
	Name      string
	MimeType  string
	SizeBytes int64
	CreatedAt time.Time
}

// Ref returns the object reference backing this record.
func (f *File) Ref() ObjectRef {
	return ObjectRef{Bucket: f.Bucket, Key: f.ObjectKey}
}
