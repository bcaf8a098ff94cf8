package constants

// DeployIDLogField is the field name used for the deploy session id in log entries
const DeployIDLogField = "deploy_id"
