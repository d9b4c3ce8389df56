// Package pipeline converts wizard drafts into the parameter objects accepted
// by the createAppPipeline, createAppLogIngestion and createLogSource
// mutations, and back.
package pipeline

// Buffer types accepted by createAppPipeline.
const (
	BufferNone = "None"
	BufferS3   = "S3"
	BufferKDS  = "KDS"
)

// Monitor statuses.
const (
	StatusEnabled  = "ENABLED"
	StatusDisabled = "DISABLED"
)

// Draft paths written by the pipeline steps.
const (
	PathMode = "mode"

	PathSourceID       = "source.id"
	PathSourceLogPath  = "source.logPath"
	PathSourceProtocol = "source.protocol"
	PathSourcePort     = "source.port"

	PathLogConfigID      = "logConfig.id"
	PathLogConfigVersion = "logConfig.version"

	PathDomain       = "opensearch.domain"
	PathIndexPrefix  = "opensearch.indexPrefix"
	PathIndexSuffix  = "opensearch.indexSuffix"
	PathShards       = "opensearch.shards"
	PathReplicas     = "opensearch.replicas"
	PathRolloverSize = "opensearch.rolloverSize"
	PathCodec        = "opensearch.codec"
	PathWarmAge      = "opensearch.warmAge"
	PathColdAge      = "opensearch.coldAge"
	PathRetainAge    = "opensearch.retainAge"

	PathBufferType = "buffer.type"

	PathS3Bucket         = "buffer.s3.bucket"
	PathS3Prefix         = "buffer.s3.prefix"
	PathS3MaxFileSize    = "buffer.s3.maxFileSize"
	PathS3UploadInterval = "buffer.s3.uploadInterval"
	PathS3Compression    = "buffer.s3.compression"

	PathKDSShards      = "buffer.kds.shards"
	PathKDSAutoscaling = "buffer.kds.autoscaling"
	PathKDSMinCapacity = "buffer.kds.minCapacity"
	PathKDSMaxCapacity = "buffer.kds.maxCapacity"

	PathMonitorEnabled = "monitor.enabled"
	PathMonitorAlarms  = "monitor.alarms"
	PathMonitorEmails  = "monitor.emails"
	PathMonitorTopic   = "monitor.snsTopic"

	PathTags = "tags"
)

// Buffer parameter keys.
const (
	ParamLogBucketName   = "logBucketName"
	ParamLogBucketPrefix = "logBucketPrefix"
	ParamMaxFileSize     = "maxFileSize"
	ParamUploadTimeout   = "uploadTimeout"
	ParamCompressionType = "compressionType"
	ParamShardCount      = "shardCount"
	ParamEnableAutoScale = "enableAutoScaling"
	ParamMinCapacity     = "minCapacity"
	ParamMaxCapacity     = "maxCapacity"
)

// KeyValue is one buffer parameter.
type KeyValue struct {
	ParamKey   string `json:"paramKey"`
	ParamValue string `json:"paramValue"`
}

// Tag is a resource tag.
type Tag struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// AOSParams configures the OpenSearch destination.
type AOSParams struct {
	DomainName        string `json:"domainName"`
	IndexPrefix       string `json:"indexPrefix"`
	IndexSuffix       string `json:"indexSuffix,omitempty"`
	ShardNumbers      int    `json:"shardNumbers"`
	ReplicaNumbers    int    `json:"replicaNumbers"`
	RolloverSize      string `json:"rolloverSize,omitempty"`
	Codec             string `json:"codec,omitempty"`
	WarmLogTransition int    `json:"warmLogTransition,omitempty"`
	ColdLogTransition int    `json:"coldLogTransition,omitempty"`
	LogRetention      int    `json:"logRetention,omitempty"`
}

// Monitor configures pipeline alarms.
type Monitor struct {
	Status              string `json:"status"`
	PipelineAlarmStatus string `json:"pipelineAlarmStatus"`
	SNSTopicName        string `json:"snsTopicName,omitempty"`
	Emails              string `json:"emails,omitempty"`
}

// CreateAppPipelineParams are the variables of createAppPipeline.
type CreateAppPipelineParams struct {
	BufferType             string     `json:"bufferType"`
	BufferParams           []KeyValue `json:"bufferParams"`
	AOSParams              AOSParams  `json:"aosParams"`
	LogConfigID            string     `json:"logConfigId,omitempty"`
	LogConfigVersionNumber int        `json:"logConfigVersionNumber,omitempty"`
	Monitor                Monitor    `json:"monitor"`
	Tags                   []Tag      `json:"tags"`
	Force                  bool       `json:"force"`
}

// Param returns the value of the buffer parameter key.
func (p CreateAppPipelineParams) Param(key string) (string, bool) {
	for _, kv := range p.BufferParams {
		if kv.ParamKey == key {
			return kv.ParamValue, true
		}
	}
	return "", false
}

// CreateAppLogIngestionParams are the variables of createAppLogIngestion.
type CreateAppLogIngestionParams struct {
	SourceID      string `json:"sourceId"`
	AppPipelineID string `json:"appPipelineId"`
	LogPath       string `json:"logPath,omitempty"`
	Tags          []Tag  `json:"tags"`
}

// Source types accepted by createLogSource.
const (
	SourceSyslog = "Syslog"
)

// CreateLogSourceParams are the variables of createLogSource.
type CreateLogSourceParams struct {
	Type    string     `json:"type"`
	Context []KeyValue `json:"context"`
	Tags    []Tag      `json:"tags"`
}
