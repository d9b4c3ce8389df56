package appsync

import (
	"context"

	"github.com/goliatone/go-pipewizard/pkg/pipeline"
)

const (
	opCreateAppPipeline     = "createAppPipeline"
	opCreateAppLogIngestion = "createAppLogIngestion"
	opCreateLogSource       = "createLogSource"
	opListLogConfigs        = "listLogConfigs"
	opGetLogConfig          = "getLogConfig"
	opListDomainNames       = "listDomainNames"
)

const createAppPipelineMutation = `mutation CreateAppPipeline(
  $bufferType: BufferType!
  $bufferParams: [BufferInput]
  $aosParams: AOSParameterInput!
  $logConfigId: String
  $logConfigVersionNumber: Int
  $monitor: MonitorInput
  $tags: [TagInput]
  $force: Boolean
) {
  createAppPipeline(
    bufferType: $bufferType
    bufferParams: $bufferParams
    aosParams: $aosParams
    logConfigId: $logConfigId
    logConfigVersionNumber: $logConfigVersionNumber
    monitor: $monitor
    tags: $tags
    force: $force
  )
}`

const createAppLogIngestionMutation = `mutation CreateAppLogIngestion(
  $sourceId: String!
  $appPipelineId: String!
  $logPath: String
  $tags: [TagInput]
) {
  createAppLogIngestion(
    sourceId: $sourceId
    appPipelineId: $appPipelineId
    logPath: $logPath
    tags: $tags
  )
}`

const createLogSourceMutation = `mutation CreateLogSource(
  $type: LogSourceType!
  $context: [ContextInput]
  $tags: [TagInput]
) {
  createLogSource(type: $type, context: $context, tags: $tags)
}`

const listLogConfigsQuery = `query ListLogConfigs($page: Int!, $count: Int!) {
  listLogConfigs(page: $page, count: $count) {
    logConfigs {
      id
      version
      name
      logType
      createdAt
    }
    total
  }
}`

const getLogConfigQuery = `query GetLogConfig($id: String!, $version: Int) {
  getLogConfig(id: $id, version: $version) {
    id
    version
    name
    logType
    createdAt
  }
}`

const listDomainNamesQuery = `query ListDomainNames($region: String) {
  listDomainNames(region: $region) {
    domainNames {
      domainName
      status
    }
  }
}`

// LogConfig is a parsing configuration referenced by pipelines.
type LogConfig struct {
	ID        string `json:"id"`
	Version   int    `json:"version"`
	Name      string `json:"name"`
	LogType   string `json:"logType"`
	CreatedAt string `json:"createdAt"`
}

// LogConfigPage is one page of ListLogConfigs.
type LogConfigPage struct {
	LogConfigs []LogConfig `json:"logConfigs"`
	Total      int         `json:"total"`
}

// DomainName is an OpenSearch domain available as a destination.
type DomainName struct {
	DomainName string `json:"domainName"`
	Status     string `json:"status"`
}

// CreateAppPipeline creates a pipeline and returns its identifier.
func (c *Client) CreateAppPipeline(ctx context.Context, params pipeline.CreateAppPipelineParams) (string, error) {
	var id string
	if err := c.Do(ctx, opCreateAppPipeline, createAppPipelineMutation, params, &id); err != nil {
		return "", err
	}
	return id, nil
}

// CreateAppLogIngestion links a source to a pipeline and returns the
// ingestion identifier.
func (c *Client) CreateAppLogIngestion(ctx context.Context, params pipeline.CreateAppLogIngestionParams) (string, error) {
	var id string
	if err := c.Do(ctx, opCreateAppLogIngestion, createAppLogIngestionMutation, params, &id); err != nil {
		return "", err
	}
	return id, nil
}

// CreateLogSource registers a log source and returns its identifier.
func (c *Client) CreateLogSource(ctx context.Context, params pipeline.CreateLogSourceParams) (string, error) {
	var id string
	if err := c.Do(ctx, opCreateLogSource, createLogSourceMutation, params, &id); err != nil {
		return "", err
	}
	return id, nil
}

// ListLogConfigs returns one page of log configs. Pages start at 1.
func (c *Client) ListLogConfigs(ctx context.Context, page, count int) (LogConfigPage, error) {
	if page < 1 {
		page = 1
	}
	if count < 1 {
		count = 50
	}
	var out LogConfigPage
	err := c.Do(ctx, opListLogConfigs, listLogConfigsQuery, map[string]any{"page": page, "count": count}, &out)
	return out, err
}

// GetLogConfig fetches a log config. A zero version selects the latest.
func (c *Client) GetLogConfig(ctx context.Context, id string, version int) (LogConfig, error) {
	vars := map[string]any{"id": id}
	if version > 0 {
		vars["version"] = version
	}
	var out LogConfig
	err := c.Do(ctx, opGetLogConfig, getLogConfigQuery, vars, &out)
	return out, err
}

// ListDomainNames lists the OpenSearch domains in region.
func (c *Client) ListDomainNames(ctx context.Context, region string) ([]DomainName, error) {
	vars := map[string]any{}
	if region != "" {
		vars["region"] = region
	}
	var out struct {
		DomainNames []DomainName `json:"domainNames"`
	}
	if err := c.Do(ctx, opListDomainNames, listDomainNamesQuery, vars, &out); err != nil {
		return nil, err
	}
	return out.DomainNames, nil
}
