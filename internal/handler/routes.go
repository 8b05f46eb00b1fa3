package handler

// APIV1Prefix is the base path of every FUSAF API route; handlers build
// Location headers from it.
const APIV1Prefix = "/api/v1"
