package flows

import (
	"errors"
	"strings"

	"github.com/goliatone/go-pipewizard/pkg/draft"
	"github.com/goliatone/go-pipewizard/pkg/pipeline"
	"github.com/goliatone/go-pipewizard/pkg/rules"
	"github.com/goliatone/go-pipewizard/pkg/validator"
	"github.com/goliatone/go-pipewizard/pkg/wizard"
)

// Step names shared by the flows and the layout documents.
const (
	StepInstanceGroup = "instanceGroup"
	StepCluster       = "cluster"
	StepBucket        = "bucket"
	StepProtocol      = "protocol"
	StepLogConfig     = "logConfig"
	StepIndex         = "index"
	StepBuffer        = "buffer"
	StepAlarms        = "alarms"
)

// ModeEdit marks a draft loaded from an existing pipeline. Source steps are
// skipped in that mode.
const ModeEdit = "edit"

// Choices offered by the select fields.
var (
	IndexSuffixes   = []string{"yyyy-MM-dd", "yyyy-MM-dd-HH", "yyyy-MM", "yyyy"}
	Codecs          = []string{"best_compression", "default"}
	BufferTypes     = []string{pipeline.BufferNone, pipeline.BufferS3, pipeline.BufferKDS}
	S3Compressions  = []string{"gzip", "none"}
	SyslogProtocols = []string{"UDP", "TCP"}
)

const (
	minSyslogPort    = 500
	maxSyslogPort    = 20000
	sourceDisabledBy = `mode == "` + ModeEdit + `"`
)

func editing() func(draft.Draft) bool {
	return wizard.MustRule(sourceDisabledBy)
}

func indexStep() wizard.Step {
	return wizard.Step{
		Name:      StepIndex,
		Title:     "OpenSearch",
		IndexStep: true,
		Fields: []wizard.Field{
			{Path: pipeline.PathDomain, Label: "Domain", Kind: wizard.FieldText, Required: true},
			{Path: pipeline.PathIndexPrefix, Label: "Index prefix", Kind: wizard.FieldText, Required: true},
			{Path: pipeline.PathIndexSuffix, Label: "Index suffix", Kind: wizard.FieldSelect, Options: IndexSuffixes},
			{Path: pipeline.PathShards, Label: "Shards", Kind: wizard.FieldNumber, Required: true},
			{Path: pipeline.PathReplicas, Label: "Replicas", Kind: wizard.FieldNumber, Required: true},
			{Path: pipeline.PathRolloverSize, Label: "Rollover size", Kind: wizard.FieldText},
			{Path: pipeline.PathCodec, Label: "Codec", Kind: wizard.FieldSelect, Options: Codecs},
			{Path: pipeline.PathWarmAge, Label: "Warm age", Kind: wizard.FieldNumber},
			{Path: pipeline.PathColdAge, Label: "Cold age", Kind: wizard.FieldNumber},
			{Path: pipeline.PathRetainAge, Label: "Retention", Kind: wizard.FieldNumber},
		},
		Validators: []*validator.Validator{
			rules.Required("domain", pipeline.PathDomain, "OpenSearch domain is required"),
			rules.IndexPrefix("indexPrefix", pipeline.PathIndexPrefix),
			rules.OneOf("indexSuffix", pipeline.PathIndexSuffix, "index suffix", IndexSuffixes...),
			rules.PositiveInt("shards", pipeline.PathShards, "shard number"),
			rules.NonNegativeInt("replicas", pipeline.PathReplicas, "replica number"),
			rules.OneOf("codec", pipeline.PathCodec, "codec", Codecs...),
			rules.LifecycleOrder("lifecycle", pipeline.PathWarmAge, pipeline.PathColdAge, pipeline.PathRetainAge),
		},
	}
}

func bufferStep() wizard.Step {
	isS3 := rules.Equals(pipeline.PathBufferType, pipeline.BufferS3)
	isKDS := rules.Equals(pipeline.PathBufferType, pipeline.BufferKDS)
	return wizard.Step{
		Name:  StepBuffer,
		Title: "Buffer",
		Fields: []wizard.Field{
			{Path: pipeline.PathBufferType, Label: "Buffer type", Kind: wizard.FieldSelect, Options: BufferTypes, Required: true},
			{Path: pipeline.PathS3Bucket, Label: "Bucket", Kind: wizard.FieldText, VisibleWhen: isS3},
			{Path: pipeline.PathS3Prefix, Label: "Prefix", Kind: wizard.FieldText, VisibleWhen: isS3},
			{Path: pipeline.PathS3MaxFileSize, Label: "Max file size", Kind: wizard.FieldNumber, VisibleWhen: isS3},
			{Path: pipeline.PathS3UploadInterval, Label: "Upload interval", Kind: wizard.FieldNumber, VisibleWhen: isS3},
			{Path: pipeline.PathS3Compression, Label: "Compression", Kind: wizard.FieldSelect, Options: S3Compressions, VisibleWhen: isS3},
			{Path: pipeline.PathKDSShards, Label: "Shards", Kind: wizard.FieldNumber, VisibleWhen: isKDS},
			{Path: pipeline.PathKDSAutoscaling, Label: "Auto scaling", Kind: wizard.FieldBool, VisibleWhen: isKDS},
			{Path: pipeline.PathKDSMinCapacity, Label: "Minimum shards", Kind: wizard.FieldNumber, VisibleWhen: func(d draft.Draft) bool {
				return isKDS(d) && d.Bool(pipeline.PathKDSAutoscaling)
			}},
			{Path: pipeline.PathKDSMaxCapacity, Label: "Maximum shards", Kind: wizard.FieldNumber, VisibleWhen: func(d draft.Draft) bool {
				return isKDS(d) && d.Bool(pipeline.PathKDSAutoscaling)
			}},
		},
		Validators: []*validator.Validator{
			rules.OneOf("bufferType", pipeline.PathBufferType, "buffer type", BufferTypes...),
			rules.When(isS3, rules.Required("s3Bucket", pipeline.PathS3Bucket, "buffer bucket is required"), pipeline.PathBufferType),
			rules.When(isS3, rules.S3Prefix("s3Prefix", pipeline.PathS3Prefix), pipeline.PathBufferType),
			rules.When(isS3, rules.Range("s3MaxFileSize", pipeline.PathS3MaxFileSize, "buffer size",
				rules.MinBufferSizeMiB, rules.MaxBufferSizeMiB), pipeline.PathBufferType),
			rules.When(isS3, rules.Range("s3UploadInterval", pipeline.PathS3UploadInterval, "buffer interval",
				rules.MinUploadInterval, rules.MaxUploadInterval), pipeline.PathBufferType),
			rules.When(isKDS, rules.PositiveInt("kdsShards", pipeline.PathKDSShards, "shard number"), pipeline.PathBufferType),
			rules.When(isKDS, rules.MaxAboveMin("kdsCapacity", pipeline.PathKDSAutoscaling,
				pipeline.PathKDSMinCapacity, pipeline.PathKDSMaxCapacity), pipeline.PathBufferType),
		},
	}
}

func alarmsStep() wizard.Step {
	alarms := func(d draft.Draft) bool { return d.Bool(pipeline.PathMonitorAlarms) }
	return wizard.Step{
		Name:  StepAlarms,
		Title: "Alarms and tags",
		Fields: []wizard.Field{
			{Path: pipeline.PathMonitorEnabled, Label: "Monitoring", Kind: wizard.FieldBool},
			{Path: pipeline.PathMonitorAlarms, Label: "Alarms", Kind: wizard.FieldBool},
			{Path: pipeline.PathMonitorTopic, Label: "SNS topic", Kind: wizard.FieldText, VisibleWhen: alarms},
			{Path: pipeline.PathMonitorEmails, Label: "Emails", Kind: wizard.FieldList, VisibleWhen: alarms},
			{Path: pipeline.PathTags, Label: "Tags", Kind: wizard.FieldTags},
		},
		Validators: []*validator.Validator{
			rules.Emails("emails", pipeline.PathMonitorAlarms, pipeline.PathMonitorEmails),
			rules.Tags("tags", pipeline.PathTags),
		},
	}
}

func logConfigStep() wizard.Step {
	return wizard.Step{
		Name:     StepLogConfig,
		Title:    "Log config",
		Disabled: editing(),
		Fields: []wizard.Field{
			{Path: pipeline.PathLogConfigID, Label: "Log config", Kind: wizard.FieldText, Required: true},
			{Path: pipeline.PathLogConfigVersion, Label: "Version", Kind: wizard.FieldNumber},
		},
		Validators: []*validator.Validator{
			rules.Required("logConfig", pipeline.PathLogConfigID, "log config is required"),
			optionalNonNegative("logConfigVersion", pipeline.PathLogConfigVersion, "log config version"),
		},
	}
}

func instanceGroupStep() wizard.Step {
	return wizard.Step{
		Name:     StepInstanceGroup,
		Title:    "Instance group",
		Disabled: editing(),
		Fields: []wizard.Field{
			{Path: pipeline.PathSourceID, Label: "Instance group", Kind: wizard.FieldText, Required: true},
			{Path: pipeline.PathSourceLogPath, Label: "Log path", Kind: wizard.FieldText, Required: true},
		},
		Validators: []*validator.Validator{
			rules.Required("instanceGroup", pipeline.PathSourceID, "instance group is required"),
			logPath("logPath", pipeline.PathSourceLogPath),
		},
	}
}

func clusterStep() wizard.Step {
	return wizard.Step{
		Name:     StepCluster,
		Title:    "EKS cluster",
		Disabled: editing(),
		Fields: []wizard.Field{
			{Path: pipeline.PathSourceID, Label: "Cluster source", Kind: wizard.FieldText, Required: true},
			{Path: pipeline.PathSourceLogPath, Label: "Container log path", Kind: wizard.FieldText, Required: true},
		},
		Validators: []*validator.Validator{
			rules.Required("cluster", pipeline.PathSourceID, "EKS cluster is required"),
			logPath("logPath", pipeline.PathSourceLogPath),
		},
	}
}

func bucketStep() wizard.Step {
	return wizard.Step{
		Name:     StepBucket,
		Title:    "S3 bucket",
		Disabled: editing(),
		Fields: []wizard.Field{
			{Path: pipeline.PathSourceID, Label: "Bucket source", Kind: wizard.FieldText, Required: true},
			{Path: pipeline.PathSourceLogPath, Label: "Prefix filter", Kind: wizard.FieldText},
		},
		Validators: []*validator.Validator{
			rules.Required("bucket", pipeline.PathSourceID, "S3 bucket source is required"),
			rules.S3Prefix("prefixFilter", pipeline.PathSourceLogPath),
		},
	}
}

func protocolStep() wizard.Step {
	return wizard.Step{
		Name:     StepProtocol,
		Title:    "Protocol and port",
		Disabled: editing(),
		Fields: []wizard.Field{
			{Path: pipeline.PathSourceProtocol, Label: "Protocol", Kind: wizard.FieldSelect, Options: SyslogProtocols, Required: true},
			{Path: pipeline.PathSourcePort, Label: "Port", Kind: wizard.FieldNumber, Required: true},
		},
		Validators: []*validator.Validator{
			rules.OneOf("protocol", pipeline.PathSourceProtocol, "protocol", SyslogProtocols...),
			rules.Range("port", pipeline.PathSourcePort, "port", minSyslogPort, maxSyslogPort),
		},
	}
}

// logPath requires an absolute file path with at most one "*".
func logPath(name, path string) *validator.Validator {
	return validator.New(name, func(d draft.Draft) error {
		value := strings.TrimSpace(d.String(path))
		switch {
		case value == "":
			return errors.New("log path is required")
		case !strings.HasPrefix(value, "/"):
			return errors.New("log path must be absolute")
		case strings.Count(value, "*") > 1:
			return errors.New("log path may contain at most one *")
		}
		return nil
	}, validator.On(path))
}

// optionalNonNegative lets path stay empty, which selects the latest
// revision.
func optionalNonNegative(name, path, label string) *validator.Validator {
	inner := rules.NonNegativeInt(name, path, label)
	return rules.When(func(d draft.Draft) bool { return d.String(path) != "" }, inner)
}
