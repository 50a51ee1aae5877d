package matchmaking

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "leomatch.matchmaking.v1.Matchmaking"

// Admin-only methods, guarded by server.AdminAuth.
var AdminMethods = []string{
	FullMethod("PurchaseCredits"),
	FullMethod("SetPremium"),
}

// FullMethod returns the wire name of a method, e.g. /leomatch.matchmaking.v1.Matchmaking/Like.
func FullMethod(name string) string { return "/" + ServiceName + "/" + name }

// MatchmakingServer is the server API. Every request and response is a
// google.protobuf.Struct; field names are documented on each method.
type MatchmakingServer interface {
	RegisterProfile(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetProfile(context.Context, *structpb.Struct) (*structpb.Struct, error)
	UpdateProfile(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeleteProfile(context.Context, *structpb.Struct) (*structpb.Struct, error)

	StartFlow(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SubmitInput(context.Context, *structpb.Struct) (*structpb.Struct, error)

	NextCandidate(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Like(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SuperLike(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CountLikesReceived(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListMatches(context.Context, *structpb.Struct) (*structpb.Struct, error)
	TopProfiles(context.Context, *structpb.Struct) (*structpb.Struct, error)

	PurchaseCredits(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SetPremium(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryMethod func(MatchmakingServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func methodDesc(name string, call unaryMethod) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(MatchmakingServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod(name)}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(MatchmakingServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// ServiceDesc describes the Matchmaking service for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*MatchmakingServer)(nil),
	Methods: []grpc.MethodDesc{
		methodDesc("RegisterProfile", MatchmakingServer.RegisterProfile),
		methodDesc("GetProfile", MatchmakingServer.GetProfile),
		methodDesc("UpdateProfile", MatchmakingServer.UpdateProfile),
		methodDesc("DeleteProfile", MatchmakingServer.DeleteProfile),
		methodDesc("StartFlow", MatchmakingServer.StartFlow),
		methodDesc("SubmitInput", MatchmakingServer.SubmitInput),
		methodDesc("NextCandidate", MatchmakingServer.NextCandidate),
		methodDesc("Like", MatchmakingServer.Like),
		methodDesc("SuperLike", MatchmakingServer.SuperLike),
		methodDesc("CountLikesReceived", MatchmakingServer.CountLikesReceived),
		methodDesc("ListMatches", MatchmakingServer.ListMatches),
		methodDesc("TopProfiles", MatchmakingServer.TopProfiles),
		methodDesc("PurchaseCredits", MatchmakingServer.PurchaseCredits),
		methodDesc("SetPremium", MatchmakingServer.SetPremium),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "leomatch/matchmaking/v1/matchmaking.proto",
}

// Client calls the Matchmaking service over any client connection.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// Call invokes method with the given request fields and returns the response fields.
func (c *Client) Call(ctx context.Context, method string, req map[string]any, opts ...grpc.CallOption) (map[string]any, error) {
	in, err := structpb.NewStruct(req)
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, FullMethod(method), in, out, opts...); err != nil {
		return nil, err
	}
	return out.AsMap(), nil
}
