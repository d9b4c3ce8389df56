package pipeline

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/goliatone/go-pipewizard/pkg/draft"
)

// FromDraft serializes the pipeline part of d. Force is left false; the
// submitter sets it when resubmitting after a conflict.
func FromDraft(d draft.Draft) (CreateAppPipelineParams, error) {
	params := CreateAppPipelineParams{
		BufferType:   d.String(PathBufferType),
		BufferParams: []KeyValue{},
		Tags:         []Tag{},
	}
	if params.BufferType == "" {
		params.BufferType = BufferNone
	}

	shards, ok := d.Int(PathShards)
	if !ok {
		return CreateAppPipelineParams{}, fmt.Errorf("pipeline: %s is not a number", PathShards)
	}
	replicas, ok := d.Int(PathReplicas)
	if !ok {
		return CreateAppPipelineParams{}, fmt.Errorf("pipeline: %s is not a number", PathReplicas)
	}
	params.AOSParams = AOSParams{
		DomainName:        d.String(PathDomain),
		IndexPrefix:       d.String(PathIndexPrefix),
		IndexSuffix:       d.String(PathIndexSuffix),
		ShardNumbers:      shards,
		ReplicaNumbers:    replicas,
		RolloverSize:      d.String(PathRolloverSize),
		Codec:             d.String(PathCodec),
		WarmLogTransition: d.IntOr(PathWarmAge, 0),
		ColdLogTransition: d.IntOr(PathColdAge, 0),
		LogRetention:      d.IntOr(PathRetainAge, 0),
	}

	switch params.BufferType {
	case BufferNone:
	case BufferS3:
		params.BufferParams = appendParam(params.BufferParams, ParamLogBucketName, d.String(PathS3Bucket))
		params.BufferParams = appendParam(params.BufferParams, ParamLogBucketPrefix, d.String(PathS3Prefix))
		params.BufferParams = appendParam(params.BufferParams, ParamMaxFileSize, d.String(PathS3MaxFileSize))
		params.BufferParams = appendParam(params.BufferParams, ParamUploadTimeout, d.String(PathS3UploadInterval))
		params.BufferParams = appendParam(params.BufferParams, ParamCompressionType, d.String(PathS3Compression))
	case BufferKDS:
		autoscaling := d.Bool(PathKDSAutoscaling)
		params.BufferParams = appendParam(params.BufferParams, ParamShardCount, d.String(PathKDSShards))
		params.BufferParams = append(params.BufferParams, KeyValue{ParamKey: ParamEnableAutoScale, ParamValue: strconv.FormatBool(autoscaling)})
		if autoscaling {
			params.BufferParams = appendParam(params.BufferParams, ParamMinCapacity, d.String(PathKDSMinCapacity))
			params.BufferParams = appendParam(params.BufferParams, ParamMaxCapacity, d.String(PathKDSMaxCapacity))
		}
	default:
		return CreateAppPipelineParams{}, fmt.Errorf("pipeline: unsupported buffer type %q", params.BufferType)
	}

	params.LogConfigID = d.String(PathLogConfigID)
	params.LogConfigVersionNumber = d.IntOr(PathLogConfigVersion, 0)

	params.Monitor = Monitor{
		Status:              status(d.Bool(PathMonitorEnabled)),
		PipelineAlarmStatus: status(d.Bool(PathMonitorAlarms)),
		SNSTopicName:        d.String(PathMonitorTopic),
		Emails:              strings.Join(d.Strings(PathMonitorEmails), ","),
	}

	tags, err := TagsFromDraft(d)
	if err != nil {
		return CreateAppPipelineParams{}, err
	}
	params.Tags = tags
	return params, nil
}

// TagsFromDraft reads the tag list written by the tags step.
func TagsFromDraft(d draft.Draft) ([]Tag, error) {
	items := d.Slice(PathTags)
	tags := make([]Tag, 0, len(items))
	for i := range items {
		base := fmt.Sprintf("%s.%d", PathTags, i)
		if _, ok := d.Get(base + ".key"); !ok {
			return nil, fmt.Errorf("pipeline: %s has no key", base)
		}
		tags = append(tags, Tag{Key: d.String(base + ".key"), Value: d.String(base + ".value")})
	}
	return tags, nil
}

// IngestionFromDraft builds the ingestion request linking the draft's source
// to the created pipeline.
func IngestionFromDraft(d draft.Draft, pipelineID string) (CreateAppLogIngestionParams, error) {
	sourceID := d.String(PathSourceID)
	if sourceID == "" {
		return CreateAppLogIngestionParams{}, fmt.Errorf("pipeline: %s is required", PathSourceID)
	}
	tags, err := TagsFromDraft(d)
	if err != nil {
		return CreateAppLogIngestionParams{}, err
	}
	return CreateAppLogIngestionParams{
		SourceID:      sourceID,
		AppPipelineID: pipelineID,
		LogPath:       d.String(PathSourceLogPath),
		Tags:          tags,
	}, nil
}

// SyslogSourceFromDraft builds the request creating a syslog source from the
// protocol and port chosen in the source step.
func SyslogSourceFromDraft(d draft.Draft) (CreateLogSourceParams, error) {
	protocol := strings.ToUpper(d.String(PathSourceProtocol))
	port, ok := d.Int(PathSourcePort)
	if protocol == "" || !ok {
		return CreateLogSourceParams{}, fmt.Errorf("pipeline: %s and %s are required", PathSourceProtocol, PathSourcePort)
	}
	tags, err := TagsFromDraft(d)
	if err != nil {
		return CreateLogSourceParams{}, err
	}
	return CreateLogSourceParams{
		Type: SourceSyslog,
		Context: []KeyValue{
			{ParamKey: "protocol", ParamValue: protocol},
			{ParamKey: "port", ParamValue: strconv.Itoa(port)},
		},
		Tags: tags,
	}, nil
}

// ToDraft is the inverse of FromDraft. Numeric buffer parameters come back as
// ints and booleans as bools; zero lifecycle ages and log config versions are
// treated as unset.
func ToDraft(params CreateAppPipelineParams) (draft.Draft, error) {
	values := map[string]any{}
	set := func(path string, value any) {
		values = setValue(values, path, value)
	}
	setString := func(path, value string) {
		if value != "" {
			set(path, value)
		}
	}
	setPositive := func(path string, value int) {
		if value > 0 {
			set(path, value)
		}
	}

	set(PathBufferType, params.BufferType)
	setString(PathDomain, params.AOSParams.DomainName)
	setString(PathIndexPrefix, params.AOSParams.IndexPrefix)
	setString(PathIndexSuffix, params.AOSParams.IndexSuffix)
	set(PathShards, params.AOSParams.ShardNumbers)
	set(PathReplicas, params.AOSParams.ReplicaNumbers)
	setString(PathRolloverSize, params.AOSParams.RolloverSize)
	setString(PathCodec, params.AOSParams.Codec)
	setPositive(PathWarmAge, params.AOSParams.WarmLogTransition)
	setPositive(PathColdAge, params.AOSParams.ColdLogTransition)
	setPositive(PathRetainAge, params.AOSParams.LogRetention)

	paths := bufferPaths(params.BufferType)
	for _, kv := range params.BufferParams {
		path, ok := paths[kv.ParamKey]
		if !ok {
			return draft.Draft{}, fmt.Errorf("pipeline: unknown %s buffer parameter %q", params.BufferType, kv.ParamKey)
		}
		set(path, decodeParam(kv.ParamKey, kv.ParamValue))
	}

	setString(PathLogConfigID, params.LogConfigID)
	setPositive(PathLogConfigVersion, params.LogConfigVersionNumber)

	set(PathMonitorEnabled, params.Monitor.Status == StatusEnabled)
	set(PathMonitorAlarms, params.Monitor.PipelineAlarmStatus == StatusEnabled)
	setString(PathMonitorTopic, params.Monitor.SNSTopicName)
	setString(PathMonitorEmails, params.Monitor.Emails)

	if len(params.Tags) > 0 {
		tags := make([]any, 0, len(params.Tags))
		for _, t := range params.Tags {
			tags = append(tags, map[string]any{"key": t.Key, "value": t.Value})
		}
		set(PathTags, tags)
	}
	return draft.New(values), nil
}

func bufferPaths(bufferType string) map[string]string {
	switch bufferType {
	case BufferS3:
		return map[string]string{
			ParamLogBucketName:   PathS3Bucket,
			ParamLogBucketPrefix: PathS3Prefix,
			ParamMaxFileSize:     PathS3MaxFileSize,
			ParamUploadTimeout:   PathS3UploadInterval,
			ParamCompressionType: PathS3Compression,
		}
	case BufferKDS:
		return map[string]string{
			ParamShardCount:      PathKDSShards,
			ParamEnableAutoScale: PathKDSAutoscaling,
			ParamMinCapacity:     PathKDSMinCapacity,
			ParamMaxCapacity:     PathKDSMaxCapacity,
		}
	default:
		return nil
	}
}

func appendParam(list []KeyValue, key, value string) []KeyValue {
	if value == "" {
		return list
	}
	return append(list, KeyValue{ParamKey: key, ParamValue: value})
}

func decodeParam(key, raw string) any {
	switch key {
	case ParamMaxFileSize, ParamUploadTimeout, ParamShardCount, ParamMinCapacity, ParamMaxCapacity:
		if n, err := strconv.Atoi(raw); err == nil {
			return n
		}
	case ParamEnableAutoScale:
		if b, err := strconv.ParseBool(raw); err == nil {
			return b
		}
	}
	return raw
}

func status(enabled bool) string {
	if enabled {
		return StatusEnabled
	}
	return StatusDisabled
}

// setValue writes into a plain nested map; paths here never index slices.
func setValue(root map[string]any, path string, value any) map[string]any {
	segments := strings.Split(path, ".")
	node := root
	for _, seg := range segments[:len(segments)-1] {
		child, ok := node[seg].(map[string]any)
		if !ok {
			child = map[string]any{}
			node[seg] = child
		}
		node = child
	}
	node[segments[len(segments)-1]] = value
	return root
}
