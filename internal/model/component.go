package model

// Bucket is a fixed architecture-component category used for keyword classification.
type Bucket string

const (
	BucketCloud        Bucket = "cloud"
	BucketDatabase     Bucket = "database"
	BucketAPI          Bucket = "api"
	BucketMicroservice Bucket = "microservice"
	BucketStorage      Bucket = "storage"
	BucketSecurity     Bucket = "security"
	BucketMonitoring   Bucket = "monitoring"
	BucketUI           Bucket = "ui"
)

const MaxComponentsPerBucket = 5

// Buckets returns all buckets in reporting order.
func Buckets() []Bucket {
	return []Bucket{
		BucketCloud,
		BucketDatabase,
		BucketAPI,
		BucketMicroservice,
		BucketStorage,
		BucketSecurity,
		BucketMonitoring,
		BucketUI,
	}
}

var bucketLabels = map[Bucket]string{
	BucketCloud:        "Cloud Services",
	BucketDatabase:     "Databases",
	BucketAPI:          "APIs",
	BucketMicroservice: "Microservices",
	BucketStorage:      "Storage",
	BucketSecurity:     "Security",
	BucketMonitoring:   "Monitoring",
	BucketUI:           "User Interfaces",
}

func (b Bucket) Label() string {
	if l, ok := bucketLabels[b]; ok {
		return l
	}
	return string(b)
}

// Components maps each bucket to the deduplicated sentences that mention it.
type Components map[Bucket][]string

// Total counts entries across all buckets.
func (c Components) Total() int {
	n := 0
	for _, entries := range c {
		n += len(entries)
	}
	return n
}
