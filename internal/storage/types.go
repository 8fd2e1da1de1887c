package storage

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownACL    = errors.New("unknown access control list")
	ErrUnknownRegion = errors.New("unknown region")
)

// ACL is a canned access control list sent as x-amz-acl.
type ACL string

const (
	ACLPrivate                ACL = "private"
	ACLPublicRead             ACL = "public-read"
	ACLPublicReadWrite        ACL = "public-read-write"
	ACLAWSExecRead            ACL = "aws-exec-read"
	ACLAuthenticatedRead      ACL = "authenticated-read"
	ACLBucketOwnerRead        ACL = "bucket-owner-read"
	ACLBucketOwnerFullControl ACL = "bucket-owner-full-control"

	DefaultACL = ACLPublicRead
)

var acls = []ACL{
	ACLPrivate,
	ACLPublicRead,
	ACLPublicReadWrite,
	ACLAWSExecRead,
	ACLAuthenticatedRead,
	ACLBucketOwnerRead,
	ACLBucketOwnerFullControl,
}

// ParseACL returns DefaultACL for an empty string.
func ParseACL(s string) (ACL, error) {
	if s == "" {
		return DefaultACL, nil
	}
	for _, a := range acls {
		if string(a) == s {
			return a, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownACL, s)
}

func (a ACL) String() string {
	return string(a)
}

type Region string

const (
	RegionUSEast1      Region = "us-east-1"
	RegionUSEast2      Region = "us-east-2"
	RegionUSWest1      Region = "us-west-1"
	RegionUSWest2      Region = "us-west-2"
	RegionEUWest1      Region = "eu-west-1"
	RegionEUWest2      Region = "eu-west-2"
	RegionEUWest3      Region = "eu-west-3"
	RegionEUCentral1   Region = "eu-central-1"
	RegionAPSouth1     Region = "ap-south-1"
	RegionAPSoutheast1 Region = "ap-southeast-1"
	RegionAPSoutheast2 Region = "ap-southeast-2"
	RegionAPNortheast1 Region = "ap-northeast-1"
	RegionAPNortheast2 Region = "ap-northeast-2"
	RegionSAEast1      Region = "sa-east-1"

	DefaultRegion = RegionEUWest1
)

var regions = []Region{
	RegionUSEast1, RegionUSEast2, RegionUSWest1, RegionUSWest2,
	RegionEUWest1, RegionEUWest2, RegionEUWest3, RegionEUCentral1,
	RegionAPSouth1, RegionAPSoutheast1, RegionAPSoutheast2,
	RegionAPNortheast1, RegionAPNortheast2, RegionSAEast1,
}

// ParseRegion accepts the codes of the known AWS regions. An empty string
// yields DefaultRegion.
func ParseRegion(s string) (Region, error) {
	if s == "" {
		return DefaultRegion, nil
	}
	for _, r := range regions {
		if string(r) == s {
			return r, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownRegion, s)
}

func (r Region) String() string {
	return string(r)
}

// Host is the regional S3 endpoint.
func (r Region) Host() string {
	return "s3-" + string(r) + ".amazonaws.com"
}
